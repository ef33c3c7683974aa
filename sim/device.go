package sim

import (
	"math"
	"time"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
)

var _ rtsa.Backend = (*Backend)(nil)

// zeroDBm is the IQ amplitude of a 0 dBm carrier.
var zeroDBm = math.Sqrt(1.0 / 20.0)

func amplitude(dbm float64) float64 {
	return zeroDBm * math.Pow(10, dbm/20)
}

type device struct {
	backend   *Backend
	spec      DeviceSpec
	handle    rtsa.HandleRef
	mode      rtsa.DeviceMode
	state     rtsa.Result
	startedAt time.Time

	tree   *tree
	config *node
	health *node

	streams map[int]*stream
}

func (d *device) cfgFloat(path string) float64 {
	n := d.config.find(path)
	if n == nil {
		return 0
	}
	return n.value()
}

func (d *device) cfgString(path string) string {
	n := d.config.find(path)
	if n == nil {
		return ""
	}
	s, _ := n.getString()
	return s
}

func (d *device) gpsEnabled() bool {
	m := d.cfgString("device/gpsmode")
	return d.state != rtsa.StatusIdle && m != "" && m != "Disabled"
}

func (d *device) iqRate() float64 {
	if s, ok := d.streams[0]; ok && s.kind == iqStream {
		return s.rate
	}
	return 0
}

// transferRate estimates the USB bytes per second of the running streams.
func (d *device) transferRate() float64 {
	var total float64
	for _, s := range d.streams {
		switch s.kind {
		case iqStream:
			total += s.rate * 8
		case spectrumStream:
			total += float64(s.bins*4) / s.duration
		}
	}
	return total
}

func (d *device) start() {
	b := d.backend
	d.state = rtsa.StatusRunning
	d.startedAt = b.now()
	d.streams = map[int]*stream{}
	now := b.streamTime()
	for _, s := range d.layout() {
		s.backend = b
		s.next = now
		s.first = true
		s.capacity = queueCapacity[b.memory]
		d.streams[s.channel] = s
	}
}

func (d *device) stop() {
	d.state = rtsa.StatusConnected
	d.streams = nil
}

// stream returns the packet stream of channel. Channels that exist in the
// current configuration but are not running yield an empty stream.
func (d *device) stream(channel int) (*stream, rtsa.Result) {
	if s, ok := d.streams[channel]; ok {
		return s, rtsa.OK
	}
	for _, s := range d.layout() {
		if s.channel == channel {
			return &stream{}, rtsa.OK
		}
	}
	return nil, rtsa.ErrorInvalidChannel
}

// layout derives the channel streams from the current configuration.
func (d *device) layout() []*stream {
	b := d.backend
	dual := d.cfgString("device/receiverchannel") == "Rx1+Rx2"
	iq := func(ch int, rate, center float64) *stream {
		return &stream{
			channel:  ch,
			kind:     iqStream,
			rate:     rate,
			center:   center,
			duration: float64(b.IQSamples) / rate,
		}
	}

	var streams []*stream
	switch d.mode {
	case rtsa.ModeRaw:
		rate := clockRates[d.cfgString("device/receiverclock")] / math.Pow(2, d.cfgFloat("main/decimation"))
		center := d.cfgFloat("main/centerfreq")
		format := d.cfgString("device/outputformat")
		if format == "iq" || format == "both" {
			streams = append(streams, iq(0, rate, center))
			if dual {
				streams = append(streams, iq(1, rate, center))
			}
		}
		if format == "spectra" || format == "both" {
			aggregate := math.Max(1, d.cfgFloat("device/fft0/fftaggregate"))
			bins := b.FFTSize
			spectrum := func(ch int) *stream {
				return &stream{
					channel:   ch,
					kind:      spectrumStream,
					startFreq: center - rate/2,
					span:      rate,
					step:      rate / float64(bins),
					rbw:       rate / float64(bins),
					bins:      bins,
					duration:  float64(bins) / rate * aggregate,
				}
			}
			streams = append(streams, spectrum(2))
			if dual {
				streams = append(streams, spectrum(3))
			}
		}
	case rtsa.ModeIQReceiver:
		rate := d.cfgFloat("main/spanfreq")
		streams = append(streams, iq(0, rate, d.cfgFloat("main/centerfreq")))
		if dual {
			streams = append(streams, iq(1, rate, d.cfgFloat("main/centerfreq")))
		}
	case rtsa.ModeIQTransceiver:
		streams = append(streams, iq(0, d.cfgFloat("main/demodspanfreq"), d.cfgFloat("main/demodcenterfreq")))
	case rtsa.ModeSweepSA:
		start, stop := d.cfgFloat("main/startfreq"), d.cfgFloat("main/stopfreq")
		if stop <= start {
			stop = start + d.cfgFloat("main/rbwfreq")
		}
		rbw := d.cfgFloat("main/rbwfreq")
		bins := int(math.Ceil((stop - start) / rbw))
		if bins > b.MaxSweepBins {
			bins = b.MaxSweepBins
		}
		if bins < 1 {
			bins = 1
		}
		streams = append(streams, &stream{
			channel:   0,
			kind:      spectrumStream,
			sweep:     true,
			startFreq: start,
			span:      stop - start,
			step:      (stop - start) / float64(bins),
			rbw:       rbw,
			bins:      bins,
			duration:  b.SweepTime.Seconds(),
		})
	}
	return streams
}
