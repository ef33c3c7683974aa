// Package sim implements rtsa.Backend in memory. It behaves like a set of
// Spectran V6 units attached to the host: devices can be enumerated,
// opened in any mode, configured and started, and produce synthetic IQ and
// spectrum packets paced by a clock. It is used by the tests and to run the
// tools without hardware.
package sim

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
)

const (
	// LibraryVersion is reported by Version.
	LibraryVersion = 0x00010000
)

// DeviceSpec describes one simulated unit.
type DeviceSpec struct {
	Serial     string
	Ready      bool
	Boost      bool
	SuperSpeed bool
}

// queueCapacity is the number of packets buffered per channel by memory mode.
var queueCapacity = map[rtsa.MemoryMode]int{
	rtsa.MemorySmall:     16,
	rtsa.MemoryMedium:    64,
	rtsa.MemoryLarge:     256,
	rtsa.MemoryLudicrous: 1024,
}

type Backend struct {
	// RescanRetries is the number of RescanDevices calls answered with
	// Retry before the scan succeeds.
	RescanRetries int
	// Clock paces packet generation and the master stream time.
	Clock Clock
	// StartupDelay is how long a started device reports StatusStarting
	// before it is running.
	StartupDelay time.Duration

	// IQSamples is the number of IQ samples per packet.
	IQSamples int
	// SweepTime is the duration of one sweepsa sweep.
	SweepTime time.Duration
	// FFTSize is the number of bins of a raw mode spectrum.
	FFTSize int
	// MaxSweepBins caps the number of bins of a sweepsa spectrum.
	MaxSweepBins int

	// ToneFrequency and ToneLevel place a carrier in the simulated
	// spectrum. NoiseLevel is the noise floor.
	ToneFrequency float64
	ToneLevel     float64
	NoiseLevel    float64

	// GPSSatellites is the number of satellites in view once GPS is enabled.
	GPSSatellites int

	mu          sync.Mutex
	specs       []DeviceSpec
	initialized bool
	memory      rtsa.MemoryMode
	xmlDir      string
	handles     map[rtsa.HandleRef]struct{}
	devices     map[rtsa.DeviceRef]*device
	nextRef     uintptr
	retries     int
	rng         *rand.Rand
	calls       []string
	sent        map[string][]rtsa.Packet
}

// New returns a backend with the given devices attached.
func New(specs ...DeviceSpec) *Backend {
	return &Backend{
		Clock:         SystemClock{},
		IQSamples:     1024,
		SweepTime:     20 * time.Millisecond,
		FFTSize:       1024,
		MaxSweepBins:  4096,
		ToneFrequency: 2441e6,
		ToneLevel:     -60,
		NoiseLevel:    -100,
		GPSSatellites: 9,
		specs:         specs,
		handles:       map[rtsa.HandleRef]struct{}{},
		devices:       map[rtsa.DeviceRef]*device{},
		sent:          map[string][]rtsa.Packet{},
		rng:           rand.New(rand.NewSource(1)),
	}
}

// Default returns a backend with a single ready superspeed device.
func Default() *Backend {
	return New(DeviceSpec{Serial: "SIM000001", Ready: true, SuperSpeed: true, Boost: true})
}

// Calls returns the names of the backend methods called so far, in order.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// Sent returns a copy of the packets transmitted by the device with serial,
// including those sent before it was last closed.
func (b *Backend) Sent(serial string) []rtsa.Packet {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]rtsa.Packet(nil), b.sent[serial]...)
}

func (b *Backend) record(call string) {
	b.calls = append(b.calls, call)
	glog.V(3).Infof("sim: %s", call)
}

func (b *Backend) now() time.Time {
	return b.Clock.Now()
}

func (b *Backend) streamTime() float64 {
	return rtsa.TimeToStreamTime(b.now())
}

func (b *Backend) newRef() uintptr {
	b.nextRef++
	return b.nextRef
}

func (b *Backend) Init(memory rtsa.MemoryMode) rtsa.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Init")
	if _, ok := queueCapacity[memory]; !ok {
		return rtsa.ErrorInvalidParameter
	}
	b.initialized = true
	b.memory = memory
	return rtsa.OK
}

func (b *Backend) InitWithPath(memory rtsa.MemoryMode, xmlDir string) rtsa.Result {
	if xmlDir == "" {
		return rtsa.ErrorMissingPathsFile
	}
	if r := b.Init(memory); r != rtsa.OK {
		return r
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.xmlDir = xmlDir
	return rtsa.OK
}

func (b *Backend) Shutdown() rtsa.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Shutdown")
	if !b.initialized {
		return rtsa.ErrorNotInitialized
	}
	if len(b.handles) > 0 {
		return rtsa.ErrorBusy
	}
	b.initialized = false
	return rtsa.OK
}

func (b *Backend) Version() uint32 {
	return LibraryVersion
}

func (b *Backend) Open() (rtsa.HandleRef, rtsa.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Open")
	if !b.initialized {
		return 0, rtsa.ErrorNotInitialized
	}
	h := rtsa.HandleRef(b.newRef())
	b.handles[h] = struct{}{}
	return h, rtsa.OK
}

func (b *Backend) Close(h rtsa.HandleRef) rtsa.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Close")
	if _, ok := b.handles[h]; !ok {
		return rtsa.ErrorNotOpen
	}
	for _, d := range b.devices {
		if d.handle == h {
			return rtsa.ErrorBusy
		}
	}
	delete(b.handles, h)
	return rtsa.OK
}

func (b *Backend) checkHandle(h rtsa.HandleRef) rtsa.Result {
	if !b.initialized {
		return rtsa.ErrorNotInitialized
	}
	if _, ok := b.handles[h]; !ok {
		return rtsa.ErrorNotOpen
	}
	return rtsa.OK
}

func (b *Backend) RescanDevices(h rtsa.HandleRef, timeoutMillis int) rtsa.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("RescanDevices")
	if r := b.checkHandle(h); r != rtsa.OK {
		return r
	}
	if b.retries < b.RescanRetries {
		b.retries++
		return rtsa.Retry
	}
	b.retries = 0
	return rtsa.OK
}

func (b *Backend) ResetDevices(h rtsa.HandleRef) rtsa.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("ResetDevices")
	if r := b.checkHandle(h); r != rtsa.OK {
		return r
	}
	for _, d := range b.devices {
		if d.state == rtsa.StatusRunning {
			d.stop()
		}
	}
	return rtsa.OK
}

func (b *Backend) EnumDevice(h rtsa.HandleRef, deviceType string, index int) (rtsa.DeviceInfo, rtsa.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("EnumDevice")
	if r := b.checkHandle(h); r != rtsa.OK {
		return rtsa.DeviceInfo{}, r
	}
	if deviceType != string(rtsa.SpectranV6) || index < 0 || index >= len(b.specs) {
		return rtsa.DeviceInfo{}, rtsa.ErrorNotFound
	}
	s := b.specs[index]
	return rtsa.DeviceInfo{
		SerialNumber: s.Serial,
		Ready:        s.Ready,
		Boost:        s.Boost,
		SuperSpeed:   s.SuperSpeed,
		Active:       b.deviceBySerial(s.Serial) != nil,
	}, rtsa.OK
}

func (b *Backend) deviceBySerial(serial string) *device {
	for _, d := range b.devices {
		if d.spec.Serial == serial {
			return d
		}
	}
	return nil
}

func (b *Backend) OpenDevice(h rtsa.HandleRef, deviceType, serial string) (rtsa.DeviceRef, rtsa.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("OpenDevice")
	if r := b.checkHandle(h); r != rtsa.OK {
		return 0, r
	}
	typ, mode, ok := strings.Cut(deviceType, "/")
	if !ok || typ != string(rtsa.SpectranV6) {
		return 0, rtsa.ErrorInvalidParameter
	}
	entries := configEntries(rtsa.DeviceMode(mode))
	if entries == nil {
		return 0, rtsa.ErrorInvalidParameter
	}
	var spec *DeviceSpec
	for i := range b.specs {
		if b.specs[i].Serial == serial {
			spec = &b.specs[i]
		}
	}
	if spec == nil {
		return 0, rtsa.ErrorNotFound
	}
	if b.deviceBySerial(serial) != nil {
		return 0, rtsa.ErrorBusy
	}

	d := &device{
		backend: b,
		spec:    *spec,
		handle:  h,
		mode:    rtsa.DeviceMode(mode),
		state:   rtsa.StatusIdle,
		tree:    newTree(),
	}
	d.config = d.tree.build("config", entries)
	d.health = d.tree.build("health", b.healthEntries(d))
	ref := rtsa.DeviceRef(b.newRef())
	b.devices[ref] = d
	return ref, rtsa.OK
}

func (b *Backend) device(ref rtsa.DeviceRef) (*device, rtsa.Result) {
	if !b.initialized {
		return nil, rtsa.ErrorNotInitialized
	}
	d, ok := b.devices[ref]
	if !ok {
		return nil, rtsa.ErrorNotOpen
	}
	return d, rtsa.OK
}

func (b *Backend) CloseDevice(h rtsa.HandleRef, ref rtsa.DeviceRef) rtsa.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("CloseDevice")
	d, r := b.device(ref)
	if r != rtsa.OK {
		return r
	}
	if d.handle != h {
		return rtsa.ErrorInvalidParameter
	}
	if d.state != rtsa.StatusIdle {
		return rtsa.ErrorBusy
	}
	delete(b.devices, ref)
	return rtsa.OK
}

func (b *Backend) ConnectDevice(ref rtsa.DeviceRef) rtsa.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("ConnectDevice")
	d, r := b.device(ref)
	if r != rtsa.OK {
		return r
	}
	if !d.spec.Ready {
		return rtsa.ErrorNotFound
	}
	if d.state == rtsa.StatusIdle {
		d.state = rtsa.StatusConnected
	}
	return rtsa.OK
}

func (b *Backend) DisconnectDevice(ref rtsa.DeviceRef) rtsa.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DisconnectDevice")
	d, r := b.device(ref)
	if r != rtsa.OK {
		return r
	}
	switch d.state {
	case rtsa.StatusIdle:
		return rtsa.ErrorNotConnected
	case rtsa.StatusConnected:
		d.state = rtsa.StatusIdle
		return rtsa.OK
	}
	return rtsa.ErrorBusy
}

func (b *Backend) StartDevice(ref rtsa.DeviceRef) rtsa.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("StartDevice")
	d, r := b.device(ref)
	if r != rtsa.OK {
		return r
	}
	switch d.state {
	case rtsa.StatusIdle:
		return rtsa.ErrorNotConnected
	case rtsa.StatusConnected:
		d.start()
	}
	return rtsa.OK
}

func (b *Backend) StopDevice(ref rtsa.DeviceRef) rtsa.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("StopDevice")
	d, r := b.device(ref)
	if r != rtsa.OK {
		return r
	}
	if d.state == rtsa.StatusIdle {
		return rtsa.ErrorNotConnected
	}
	d.stop()
	return rtsa.OK
}

func (b *Backend) GetDeviceState(ref rtsa.DeviceRef) rtsa.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, r := b.device(ref)
	if r != rtsa.OK {
		return r
	}
	if d.state == rtsa.StatusRunning && b.now().Sub(d.startedAt) < b.StartupDelay {
		return rtsa.StatusStarting
	}
	return d.state
}

func (b *Backend) AvailPackets(ref rtsa.DeviceRef, channel int) (int, rtsa.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, r := b.device(ref)
	if r != rtsa.OK {
		return 0, r
	}
	s, r := d.stream(channel)
	if r != rtsa.OK {
		return 0, r
	}
	s.fill(b.streamTime())
	return len(s.queue), rtsa.OK
}

func (b *Backend) GetPacket(ref rtsa.DeviceRef, channel, index int) (*rtsa.Packet, rtsa.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, r := b.device(ref)
	if r != rtsa.OK {
		return nil, r
	}
	s, r := d.stream(channel)
	if r != rtsa.OK {
		return nil, r
	}
	if index < 0 {
		return nil, rtsa.ErrorInvalidParameter
	}
	s.fill(b.streamTime())
	if index >= len(s.queue) {
		return nil, rtsa.Empty
	}
	p := *s.queue[index]
	p.Samples = append([]float32(nil), p.Samples...)
	return &p, rtsa.OK
}

func (b *Backend) ConsumePackets(ref rtsa.DeviceRef, channel, num int) rtsa.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, r := b.device(ref)
	if r != rtsa.OK {
		return r
	}
	s, r := d.stream(channel)
	if r != rtsa.OK {
		return r
	}
	if num < 0 {
		return rtsa.ErrorInvalidParameter
	}
	if num > len(s.queue) {
		num = len(s.queue)
	}
	s.queue = s.queue[num:]
	return rtsa.OK
}

func (b *Backend) GetMasterStreamTime(ref rtsa.DeviceRef) (float64, rtsa.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, r := b.device(ref); r != rtsa.OK {
		return 0, r
	}
	return b.streamTime(), rtsa.OK
}

func (b *Backend) SendPacket(ref rtsa.DeviceRef, channel int, p *rtsa.Packet) rtsa.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, r := b.device(ref)
	if r != rtsa.OK {
		return r
	}
	if d.mode != rtsa.ModeIQTransmitter && d.mode != rtsa.ModeIQTransceiver || channel != 0 {
		return rtsa.ErrorInvalidChannel
	}
	if d.state != rtsa.StatusRunning {
		return rtsa.ErrorNotConnected
	}
	if p == nil || p.Size != 2 || p.Stride < p.Size || int64(len(p.Samples)) < p.Num*p.Stride {
		return rtsa.ErrorInvalidSize
	}
	cp := *p
	cp.Samples = append([]float32(nil), p.Samples[:p.Num*p.Stride]...)
	b.sent[d.spec.Serial] = append(b.sent[d.spec.Serial], cp)
	return rtsa.OK
}

func (b *Backend) ConfigRoot(ref rtsa.DeviceRef) (rtsa.ConfigRef, rtsa.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, r := b.device(ref)
	if r != rtsa.OK {
		return 0, r
	}
	return d.config.ref, rtsa.OK
}

func (b *Backend) ConfigHealth(ref rtsa.DeviceRef) (rtsa.ConfigRef, rtsa.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, r := b.device(ref)
	if r != rtsa.OK {
		return 0, r
	}
	return d.health.ref, rtsa.OK
}

func (b *Backend) node(ref rtsa.DeviceRef, c rtsa.ConfigRef) (*node, rtsa.Result) {
	d, r := b.device(ref)
	if r != rtsa.OK {
		return nil, r
	}
	n, ok := d.tree.nodes[c]
	if !ok {
		return nil, rtsa.ErrorInvalidConfig
	}
	return n, rtsa.OK
}

func (b *Backend) ConfigFirst(ref rtsa.DeviceRef, group rtsa.ConfigRef) (rtsa.ConfigRef, rtsa.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, r := b.node(ref, group)
	if r != rtsa.OK {
		return 0, r
	}
	if len(g.children) == 0 {
		return 0, rtsa.Empty
	}
	return g.children[0].ref, rtsa.OK
}

func (b *Backend) ConfigNext(ref rtsa.DeviceRef, group, config rtsa.ConfigRef) (rtsa.ConfigRef, rtsa.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, r := b.node(ref, group)
	if r != rtsa.OK {
		return 0, r
	}
	for i, c := range g.children {
		if c.ref == config {
			if i+1 < len(g.children) {
				return g.children[i+1].ref, rtsa.OK
			}
			return 0, rtsa.Empty
		}
	}
	return 0, rtsa.ErrorInvalidConfig
}

func (b *Backend) ConfigFind(ref rtsa.DeviceRef, group rtsa.ConfigRef, name string) (rtsa.ConfigRef, rtsa.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, r := b.node(ref, group)
	if r != rtsa.OK {
		return 0, r
	}
	n := g.find(name)
	if n == nil {
		return 0, rtsa.ErrorNotFound
	}
	return n.ref, rtsa.OK
}

func (b *Backend) ConfigGetName(ref rtsa.DeviceRef, c rtsa.ConfigRef) (string, rtsa.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, r := b.node(ref, c)
	if r != rtsa.OK {
		return "", r
	}
	return n.name, rtsa.OK
}

func (b *Backend) ConfigGetInfo(ref rtsa.DeviceRef, c rtsa.ConfigRef) (rtsa.ConfigInfo, rtsa.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, r := b.node(ref, c)
	if r != rtsa.OK {
		return rtsa.ConfigInfo{}, r
	}
	return n.info(), rtsa.OK
}

func (b *Backend) ConfigSetFloat(ref rtsa.DeviceRef, c rtsa.ConfigRef, v float64) rtsa.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, r := b.node(ref, c)
	if r != rtsa.OK {
		return r
	}
	return n.setFloat(v)
}

func (b *Backend) ConfigGetFloat(ref rtsa.DeviceRef, c rtsa.ConfigRef) (float64, rtsa.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, r := b.node(ref, c)
	if r != rtsa.OK {
		return 0, r
	}
	return n.getFloat()
}

func (b *Backend) ConfigSetString(ref rtsa.DeviceRef, c rtsa.ConfigRef, v string) rtsa.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, r := b.node(ref, c)
	if r != rtsa.OK {
		return r
	}
	return n.setString(v)
}

func (b *Backend) ConfigGetString(ref rtsa.DeviceRef, c rtsa.ConfigRef) (string, rtsa.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, r := b.node(ref, c)
	if r != rtsa.OK {
		return "", r
	}
	return n.getString()
}

func (b *Backend) ConfigSetInteger(ref rtsa.DeviceRef, c rtsa.ConfigRef, v int64) rtsa.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, r := b.node(ref, c)
	if r != rtsa.OK {
		return r
	}
	return n.setInteger(v)
}

func (b *Backend) ConfigGetInteger(ref rtsa.DeviceRef, c rtsa.ConfigRef) (int64, rtsa.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, r := b.node(ref, c)
	if r != rtsa.OK {
		return 0, r
	}
	return n.getInteger()
}

func (s DeviceSpec) String() string {
	return fmt.Sprintf("%s (ready=%t boost=%t superspeed=%t)", s.Serial, s.Ready, s.Boost, s.SuperSpeed)
}
