package dsp

import (
	"math"
	"math/cmplx"
	"reflect"
	"testing"
)

func tone(n, bin int, dbm float64) []complex64 {
	amp := math.Sqrt(zeroDBmPower) * math.Pow(10, dbm/20)
	iq := make([]complex64, n)
	for i := range iq {
		iq[i] = complex64(cmplx.Rect(amp, 2*math.Pi*float64(bin*i)/float64(n)))
	}
	return iq
}

func TestEnergy(t *testing.T) {
	if got := Energy([]complex64{1 + 2i, 3 + 4i}); got != 30 {
		t.Errorf("Energy() = %f, want 30", got)
	}
	if got := Energy(nil); got != 0 {
		t.Errorf("Energy(nil) = %f, want 0", got)
	}
}

func TestPowerDBm(t *testing.T) {
	for _, dbm := range []float64{0, -30, -85.5} {
		if got := PowerDBm(tone(64, 3, dbm)); math.Abs(got-dbm) > 0.001 {
			t.Errorf("PowerDBm() = %f, want %f", got, dbm)
		}
	}
	if got := PowerDBm(nil); !math.IsInf(got, -1) {
		t.Errorf("PowerDBm(nil) = %f, want -Inf", got)
	}
}

func TestSpectrum(t *testing.T) {
	const n = 256
	s := Spectrum(tone(n, 32, -30))
	if len(s) != n {
		t.Fatalf("Spectrum() has %d bins, want %d", len(s), n)
	}
	peak := PeakBin(s)
	if peak != n/2+32 {
		t.Errorf("PeakBin() = %d, want %d", peak, n/2+32)
	}
	if math.Abs(s[peak]+30) > 0.01 {
		t.Errorf("peak level = %f dBm, want -30", s[peak])
	}

	neg := Spectrum(tone(n, -10, -50))
	if got := PeakBin(neg); got != n/2-10 {
		t.Errorf("PeakBin() of a negative offset tone = %d, want %d", got, n/2-10)
	}
	if Spectrum(make([]complex64, 1)) != nil {
		t.Error("Spectrum() of a single sample is not nil")
	}
}

func TestPeakBinEmpty(t *testing.T) {
	if got := PeakBin(nil); got != -1 {
		t.Errorf("PeakBin(nil) = %d, want -1", got)
	}
}

func TestMaxHold(t *testing.T) {
	row := []float32{-50, -20, -80, -10, -90, -30}
	if got, want := MaxHold(row, 3), []float32{-20, -10, -30}; !reflect.DeepEqual(got, want) {
		t.Errorf("MaxHold(3) = %v, want %v", got, want)
	}
	if got, want := MaxHold(row[:2], 4), []float32{-200, -50, -200, -20}; !reflect.DeepEqual(got, want) {
		t.Errorf("MaxHold(4) = %v, want %v", got, want)
	}
}

func TestASCIIRow(t *testing.T) {
	levels := []float32{-10, -11, 5, -200, -13.5}
	if got, want := ASCIIRow(levels, 10, false), "$@__%"; got != want {
		t.Errorf("ASCIIRow(offset 10) = %q, want %q", got, want)
	}
	if got, want := ASCIIRow([]float32{5, -3, -100}, 0, true), "$% "; got != want {
		t.Errorf("ASCIIRow(clamped) = %q, want %q", got, want)
	}
}

func TestIQLine(t *testing.T) {
	got := IQLine([]complex64{complex(0.5, -0.25)}, 50, 40)
	if len(got) != 101 {
		t.Fatalf("IQLine() is %d characters wide, want 101", len(got))
	}
	for i, want := range map[int]byte{0: '|', 25: '.', 40: 'Q', 50: '|', 70: 'I', 75: '.', 100: '|'} {
		if got[i] != want {
			t.Errorf("IQLine()[%d] = %q, want %q", i, got[i], want)
		}
	}

	two := IQLine([]complex64{0, complex(1, 1)}, 20, 100)
	if len(two) != 81 {
		t.Fatalf("two panel IQLine() is %d characters wide, want 81", len(two))
	}
	if two[20] != 'Q' || two[40] != '|' || two[60] != '|' {
		t.Errorf("two panel IQLine() = %q", two)
	}
}
