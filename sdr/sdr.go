package sdr

import (
	"context"
	"time"
)

type Sample struct {
	// Metadata
	Identifier string
	Source     string

	// Radio Data
	FreqCenter  int64
	FreqLow     int64
	FreqHigh    int64
	DBHigh      float64
	DBLow       float64
	DBAvg       float64
	SampleCount int64
	Start       time.Time
	End         time.Time
}

// Merge folds o into s. DBAvg is weighted by the sample counts.
func (s *Sample) Merge(o Sample) {
	if o.Start.Before(s.Start) {
		s.Start = o.Start
	}
	if o.End.After(s.End) {
		s.End = o.End
	}
	total := s.SampleCount + o.SampleCount
	if total > 0 {
		s.DBAvg = (s.DBAvg*float64(s.SampleCount) + o.DBAvg*float64(o.SampleCount)) / float64(total)
	}
	if o.DBLow < s.DBLow {
		s.DBLow = o.DBLow
	}
	if o.DBHigh > s.DBHigh {
		s.DBHigh = o.DBHigh
	}
	s.SampleCount = total
}

// SDR produces samples until ctx is done or the radio fails. Sweep closes
// samples when it returns.
type SDR interface {
	Name() string
	Sweep(ctx context.Context, opts *Options, samples chan<- Sample) error
}

type Options struct {
	// LowFreq is the lower frequency to start the sweeps with in Hz.
	LowFreq int64
	// HighFreq is the upper frequency to end the sweeps with in Hz.
	HighFreq int64

	// BinSize is the FFT bin width (frequency resolution) in Hz.
	// BinSize is a maximum, smaller more convenient bins will be used.
	BinSize int64

	// IntegrationInterval is the duration during which to collect information per frequency.
	IntegrationInterval time.Duration
}
