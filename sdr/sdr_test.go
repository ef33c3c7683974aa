package sdr

import (
	"testing"
	"time"
)

func TestMerge(t *testing.T) {
	t0 := time.Unix(1700000000, 0)
	s := Sample{
		FreqCenter:  2441500000,
		DBLow:       -80,
		DBHigh:      -70,
		DBAvg:       -75,
		SampleCount: 3,
		Start:       t0.Add(time.Second),
		End:         t0.Add(2 * time.Second),
	}
	s.Merge(Sample{
		DBLow:       -90,
		DBHigh:      -60,
		DBAvg:       -65,
		SampleCount: 1,
		Start:       t0,
		End:         t0.Add(3 * time.Second),
	})

	want := Sample{
		FreqCenter:  2441500000,
		DBLow:       -90,
		DBHigh:      -60,
		DBAvg:       -72.5,
		SampleCount: 4,
		Start:       t0,
		End:         t0.Add(3 * time.Second),
	}
	if s != want {
		t.Errorf("Merge() = %+v, want %+v", s, want)
	}
}

func TestMergeEmpty(t *testing.T) {
	s := Sample{DBAvg: -50}
	s.Merge(Sample{DBAvg: -40})
	if s.DBAvg != -50 || s.SampleCount != 0 {
		t.Errorf("Merge() of empty samples = %+v", s)
	}
}
