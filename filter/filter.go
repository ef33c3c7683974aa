package filter

import (
	"context"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/sdr"
)

type Filterer interface {
	ShouldIgnore(*sdr.Sample) bool
}

// Filter forwards the samples no filter ignores until input is closed or ctx
// is done. output is closed on return.
func Filter(ctx context.Context, input <-chan sdr.Sample, output chan<- sdr.Sample, filters []Filterer) error {
	defer close(output)
	for s := range input {
		if ignored(&s, filters) {
			continue
		}
		select {
		case output <- s:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func ignored(s *sdr.Sample, filters []Filterer) bool {
	for _, f := range filters {
		if f.ShouldIgnore(s) {
			return true
		}
	}
	return false
}

// FilterFreq drops samples that do not overlap [FreqLow, FreqHigh].
type FilterFreq struct {
	FreqHigh int64
	FreqLow  int64
}

func (f *FilterFreq) ShouldIgnore(s *sdr.Sample) bool {
	// Check if low freq of sample is higher than what we want to include.
	if s.FreqLow > f.FreqHigh {
		return true
	}
	// Check if high freq of sample is lower than what we want to include.
	if s.FreqHigh < f.FreqLow {
		return true
	}
	return false
}

// FilterLevel drops samples whose peak level stays below MinDB.
type FilterLevel struct {
	MinDB float64
}

func (f *FilterLevel) ShouldIgnore(s *sdr.Sample) bool {
	return s.DBHigh < f.MinDB
}
