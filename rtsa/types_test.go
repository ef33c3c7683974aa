package rtsa_test

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
)

func TestPacketRows(t *testing.T) {
	p := &rtsa.Packet{
		Num:     3,
		Size:    2,
		Stride:  3,
		Samples: []float32{1, 2, 99, 3, 4, 99, 0, 1, 99},
	}
	if got, want := p.Row(1), []float32{3, 4}; !reflect.DeepEqual(got, want) {
		t.Errorf("Row(1) = %v, want %v", got, want)
	}
	if got := p.Row(3); got != nil {
		t.Errorf("Row(3) = %v, want nil", got)
	}
	if got, want := p.IQ(), []complex64{1 + 2i, 3 + 4i, 1i}; !reflect.DeepEqual(got, want) {
		t.Errorf("IQ() = %v, want %v", got, want)
	}
	if got := p.Energy(); got != 31 {
		t.Errorf("Energy() = %f, want 31", got)
	}

	short := &rtsa.Packet{Num: 4, Size: 2, Stride: 2, Samples: []float32{1, 1, 1, 1}}
	if got := len(short.IQ()); got != 2 {
		t.Errorf("IQ() of truncated packet has %d samples, want 2", got)
	}
}

func TestPacketTiming(t *testing.T) {
	p := &rtsa.Packet{
		StartTime:      10,
		EndTime:        10.5,
		StartFrequency: 2400e6,
		StepFrequency:  1e6,
		Num:            1000,
	}
	if got := p.Frequency(41); got != 2441e6 {
		t.Errorf("Frequency(41) = %f, want 2441e6", got)
	}
	if got := p.SampleRate(); got != 2000 {
		t.Errorf("SampleRate() = %f, want 2000", got)
	}
	p.EndTime = p.StartTime
	if got := p.SampleRate(); !math.IsNaN(got) {
		t.Errorf("SampleRate() of empty packet = %f, want NaN", got)
	}
}

func TestPacketFlags(t *testing.T) {
	f := rtsa.FlagStreamStart | rtsa.FlagSegmentStart
	if !f.Has(rtsa.FlagStreamStart) || !f.Has(rtsa.FlagSegmentStart) {
		t.Errorf("%#x is missing a set flag", f)
	}
	if f.Has(rtsa.FlagStreamEnd) || f.Has(rtsa.FlagStreamStart|rtsa.FlagStreamEnd) {
		t.Errorf("%#x reports an unset flag", f)
	}
}

func TestConfigInfoOptions(t *testing.T) {
	info := &rtsa.ConfigInfo{Options: "Rx1;Rx2;Rx12", DisabledOptions: 0b10}
	if got, want := info.EnumOptions(), []string{"Rx1", "Rx2", "Rx12"}; !reflect.DeepEqual(got, want) {
		t.Errorf("EnumOptions() = %q, want %q", got, want)
	}
	if info.OptionDisabled(0) || !info.OptionDisabled(1) || info.OptionDisabled(64) {
		t.Error("OptionDisabled() does not follow the disabled mask")
	}
	if got := (&rtsa.ConfigInfo{}).EnumOptions(); got != nil {
		t.Errorf("EnumOptions() without options = %q, want nil", got)
	}
}

func TestParseMemoryMode(t *testing.T) {
	for _, m := range []rtsa.MemoryMode{rtsa.MemorySmall, rtsa.MemoryMedium, rtsa.MemoryLarge, rtsa.MemoryLudicrous} {
		got, err := rtsa.ParseMemoryMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMemoryMode(%q) = %s, %v", m, got, err)
		}
	}
	if got, err := rtsa.ParseMemoryMode("LARGE"); err != nil || got != rtsa.MemoryLarge {
		t.Errorf("ParseMemoryMode(LARGE) = %s, %v", got, err)
	}
	if _, err := rtsa.ParseMemoryMode("huge"); err == nil {
		t.Error("ParseMemoryMode(huge) succeeded")
	}
}

func TestDeviceModePath(t *testing.T) {
	if got := rtsa.ModeIQReceiver.Path(rtsa.SpectranV6); got != "spectranv6/iqreceiver" {
		t.Errorf("Path() = %q", got)
	}
}

func TestStreamTime(t *testing.T) {
	want := time.Date(2024, 3, 1, 12, 0, 0, 500000000, time.UTC)
	st := rtsa.TimeToStreamTime(want)
	if got := rtsa.StreamTimeToTime(st); got.Sub(want).Abs() > time.Microsecond {
		t.Errorf("StreamTimeToTime(%f) = %s, want %s", st, got, want)
	}
}
