package rtsa

import (
	"fmt"
	"math"
	"strings"
)

// MemoryMode selects how much memory the library reserves for packet queues.
type MemoryMode uint32

const (
	MemorySmall MemoryMode = iota
	MemoryMedium
	MemoryLarge
	MemoryLudicrous
)

var memoryModeNames = map[MemoryMode]string{
	MemorySmall:     "small",
	MemoryMedium:    "medium",
	MemoryLarge:     "large",
	MemoryLudicrous: "ludicrous",
}

func (m MemoryMode) String() string {
	if n, ok := memoryModeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("MemoryMode(%d)", uint32(m))
}

// ParseMemoryMode parses the name of a memory mode as returned by String.
func ParseMemoryMode(s string) (MemoryMode, error) {
	for m, n := range memoryModeNames {
		if strings.EqualFold(n, s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%q is not a supported memory mode, pick one of: small, medium, large, ludicrous", s)
}

// DeviceType is the device family identifier used for enumeration.
type DeviceType string

const SpectranV6 DeviceType = "spectranv6"

// DeviceMode selects the firmware personality a device is opened with.
type DeviceMode string

const (
	ModeRaw           DeviceMode = "raw"
	ModeIQReceiver    DeviceMode = "iqreceiver"
	ModeSweepSA       DeviceMode = "sweepsa"
	ModeIQTransmitter DeviceMode = "iqtransmitter"
	ModeIQTransceiver DeviceMode = "iqtransceiver"
)

// Modes lists the modes a Spectran V6 can be opened in.
var Modes = []DeviceMode{ModeRaw, ModeIQReceiver, ModeSweepSA, ModeIQTransmitter, ModeIQTransceiver}

// Path returns the "<type>/<mode>" identifier passed to OpenDevice.
func (m DeviceMode) Path(t DeviceType) string {
	return string(t) + "/" + string(m)
}

// ConfigType is the value type of a config tree node.
type ConfigType uint32

const (
	ConfigOther ConfigType = iota
	ConfigGroup
	ConfigBlob
	ConfigNumber
	ConfigBool
	ConfigEnum
	ConfigString
)

var configTypeNames = []string{"other", "group", "blob", "number", "bool", "enum", "string"}

func (t ConfigType) String() string {
	if int(t) < len(configTypeNames) {
		return configTypeNames[t]
	}
	return fmt.Sprintf("ConfigType(%d)", uint32(t))
}

// PacketFlags mark stream and segment boundaries in a packet stream.
type PacketFlags uint64

const (
	FlagStreamStart  PacketFlags = 0x00000001
	FlagStreamEnd    PacketFlags = 0x00000002
	FlagSegmentStart PacketFlags = 0x00000004
	FlagSegmentEnd   PacketFlags = 0x00000008
	FlagWarp         PacketFlags = 0x00000010
	FlagEcho         PacketFlags = 0x00000020
)

func (f PacketFlags) Has(flag PacketFlags) bool {
	return f&flag == flag
}

// DeviceInfo describes a device found during enumeration.
type DeviceInfo struct {
	SerialNumber string
	Ready        bool
	Boost        bool
	SuperSpeed   bool
	Active       bool
}

// ConfigInfo describes a config tree node.
type ConfigInfo struct {
	Name  string
	Title string
	Type  ConfigType
	Min   float64
	Max   float64
	Step  float64
	Unit  string
	// Options is the ";" separated list of values of an enum node.
	Options         string
	DisabledOptions uint64
}

// EnumOptions splits Options into its values.
func (c *ConfigInfo) EnumOptions() []string {
	if c.Options == "" {
		return nil
	}
	return strings.Split(c.Options, ";")
}

// OptionDisabled reports whether the enum option at index i is disabled.
func (c *ConfigInfo) OptionDisabled(i int) bool {
	if i < 0 || i >= 64 {
		return false
	}
	return c.DisabledOptions&(1<<uint(i)) != 0
}

// Packet is one buffer of IQ or spectrum samples with its timing metadata.
// Samples holds Num rows of Stride floats each, of which the first Size are
// valid.
type Packet struct {
	StreamID       uint64
	Flags          PacketFlags
	StartTime      float64
	EndTime        float64
	StartFrequency float64
	StepFrequency  float64
	SpanFrequency  float64
	RBWFrequency   float64
	Num            int64
	Total          int64
	Size           int64
	Stride         int64
	Interleave     int64
	Samples        []float32
}

// Row returns the Size valid samples of row i.
func (p *Packet) Row(i int) []float32 {
	if i < 0 || int64(i) >= p.Num {
		return nil
	}
	start := int64(i) * p.Stride
	end := start + p.Size
	if end > int64(len(p.Samples)) {
		return nil
	}
	return p.Samples[start:end]
}

// IQ returns the samples of an IQ packet as complex values.
func (p *Packet) IQ() []complex64 {
	iq := make([]complex64, 0, p.Num)
	for i := 0; int64(i) < p.Num; i++ {
		row := p.Row(i)
		if len(row) < 2 {
			break
		}
		iq = append(iq, complex(row[0], row[1]))
	}
	return iq
}

// Energy returns the summed |x|² over the IQ samples of the packet.
func (p *Packet) Energy() float64 {
	var e float64
	for _, s := range p.IQ() {
		e += float64(real(s))*float64(real(s)) + float64(imag(s))*float64(imag(s))
	}
	return e
}

// Frequency returns the frequency in Hz of spectrum bin i.
func (p *Packet) Frequency(bin int) float64 {
	return p.StartFrequency + float64(bin)*p.StepFrequency
}

// Duration returns the time span covered by the packet in seconds.
func (p *Packet) Duration() float64 {
	return p.EndTime - p.StartTime
}

// SampleRate returns the IQ sample rate implied by the packet timing.
func (p *Packet) SampleRate() float64 {
	d := p.Duration()
	if d <= 0 {
		return math.NaN()
	}
	return float64(p.Num) / d
}
