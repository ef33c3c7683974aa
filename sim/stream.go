package sim

import (
	"math"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
)

type streamKind int

const (
	iqStream streamKind = iota
	spectrumStream
)

// stream generates the packets of one channel, paced by the stream time.
type stream struct {
	backend *Backend
	channel int
	kind    streamKind
	sweep   bool

	// IQ streams.
	rate   float64
	center float64
	count  int64

	// Spectrum streams.
	startFreq float64
	span      float64
	step      float64
	rbw       float64
	bins      int

	duration float64
	next     float64
	first    bool
	capacity int
	queue    []*rtsa.Packet
}

// fill queues every packet that has completed by stream time now. When the
// queue is full, the oldest pending data is lost.
func (s *stream) fill(now float64) {
	if s.backend == nil || s.duration <= 0 {
		return
	}
	n := int64((now - s.next) / s.duration)
	if n <= 0 {
		return
	}
	if free := int64(s.capacity - len(s.queue)); n > free {
		skip := n - free
		s.next += float64(skip) * s.duration
		s.count += skip * int64(s.backend.IQSamples)
		n = free
	}
	for i := int64(0); i < n; i++ {
		s.queue = append(s.queue, s.packet())
	}
}

func (s *stream) packet() *rtsa.Packet {
	p := &rtsa.Packet{
		StreamID:   uint64(s.channel),
		StartTime:  s.next,
		EndTime:    s.next + s.duration,
		Interleave: 1,
	}
	if s.first {
		p.Flags = rtsa.FlagStreamStart | rtsa.FlagSegmentStart
		s.first = false
	}
	s.next = p.EndTime

	switch s.kind {
	case iqStream:
		s.iq(p)
	case spectrumStream:
		s.spectrum(p)
	}
	return p
}

func (s *stream) iq(p *rtsa.Packet) {
	b := s.backend
	n := b.IQSamples
	p.Num, p.Total, p.Size, p.Stride = int64(n), int64(n), 2, 2
	p.StartFrequency = s.center - s.rate/2
	p.StepFrequency = s.rate
	p.SpanFrequency = s.rate
	p.RBWFrequency = s.rate

	offset := b.ToneFrequency - s.center
	amp := 0.0
	if math.Abs(offset) < s.rate/2 {
		amp = amplitude(b.ToneLevel)
	}
	sigma := amplitude(b.NoiseLevel) / math.Sqrt2
	p.Samples = make([]float32, 2*n)
	for i := 0; i < n; i++ {
		phase := 2 * math.Pi * offset * float64(s.count+int64(i)) / s.rate
		p.Samples[2*i] = float32(amp*math.Cos(phase) + sigma*b.rng.NormFloat64())
		p.Samples[2*i+1] = float32(amp*math.Sin(phase) + sigma*b.rng.NormFloat64())
	}
	s.count += int64(n)
}

func (s *stream) spectrum(p *rtsa.Packet) {
	b := s.backend
	p.Num, p.Total, p.Size, p.Stride = 1, 1, int64(s.bins), int64(s.bins)
	p.StartFrequency = s.startFreq
	p.StepFrequency = s.step
	p.SpanFrequency = s.span
	p.RBWFrequency = s.rbw
	if s.sweep {
		p.Flags |= rtsa.FlagSegmentStart | rtsa.FlagSegmentEnd
	}

	p.Samples = make([]float32, s.bins)
	for i := range p.Samples {
		p.Samples[i] = float32(b.NoiseLevel + b.rng.NormFloat64())
	}
	if tone := int(math.Floor((b.ToneFrequency - s.startFreq) / s.step)); tone >= 0 && tone < s.bins {
		p.Samples[tone] = float32(b.ToneLevel)
	}
}
