// Package dsp holds the signal processing and console rendering helpers
// shared by the RTSA tools.
package dsp

import (
	"math"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

// zeroDBmPower is the mean IQ power of a 0 dBm signal.
const zeroDBmPower = 1.0 / 20.0

// Ramp orders characters from dense to sparse. Strong levels are drawn with
// the characters at the start.
const Ramp = "$@B%8&WM#*oahkbdpqwmZO0QLCJUYXzcvunxrjft/|()1{}[]?-_+~<>i!lI;:,\"^`'. "

// Energy returns the summed |x|² of the samples.
func Energy(iq []complex64) float64 {
	var e float64
	for _, s := range iq {
		re, im := float64(real(s)), float64(imag(s))
		e += re*re + im*im
	}
	return e
}

// PowerDBm returns the mean power of the samples in dBm.
func PowerDBm(iq []complex64) float64 {
	if len(iq) == 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(Energy(iq)/float64(len(iq))/zeroDBmPower)
}

// Spectrum returns the Hann windowed power spectrum of the samples in dBm
// per bin, shifted so that the center frequency is in the middle. It needs at
// least two samples.
func Spectrum(iq []complex64) []float64 {
	n := len(iq)
	if n < 2 {
		return nil
	}
	seq := make([]complex128, n)
	for i, s := range iq {
		seq[i] = complex128(s)
	}
	seq = window.HannComplex(seq)

	// A carrier of amplitude A shows as A·sum(w) in its bin.
	ones := make([]float64, n)
	floats.AddConst(1, ones)
	gain := floats.Sum(window.Hann(ones))
	coeff := fourier.NewCmplxFFT(n).Coefficients(nil, seq)

	out := make([]float64, n)
	half := n / 2
	for i, c := range coeff {
		a := cmplx.Abs(c) / gain
		// Move the upper half, the negative frequencies, to the front.
		j := (i + half) % n
		if a == 0 {
			out[j] = math.Inf(-1)
			continue
		}
		out[j] = 10 * math.Log10(a*a/zeroDBmPower)
	}
	return out
}

// PeakBin returns the index of the largest value, or -1 for an empty slice.
func PeakBin(levels []float64) int {
	if len(levels) == 0 {
		return -1
	}
	return floats.MaxIdx(levels)
}

// MaxHold reduces row to cols columns, each holding the maximum of the bins
// it covers. Columns that cover no bin are -200.
func MaxHold(row []float32, cols int) []float32 {
	out := make([]float32, cols)
	k := 0
	for j := range out {
		l := len(row) * (j + 1) / cols
		mv := float32(-200)
		for _, v := range row[k:l] {
			if v > mv {
				mv = v
			}
		}
		out[j] = mv
		k = l
	}
	return out
}

// ASCIIRow draws one character per level. A level v in dBm maps to the ramp
// index -(v+offset), so every dB below -offset is one step sparser. Levels
// outside the ramp are clamped when clamp is set and drawn as '_' otherwise.
func ASCIIRow(levels []float32, offset float32, clamp bool) string {
	var sb strings.Builder
	sb.Grow(len(levels))
	for _, v := range levels {
		i := -int(v + offset)
		switch {
		case i >= 0 && i < len(Ramp):
		case !clamp:
			sb.WriteByte('_')
			continue
		case i < 0:
			i = 0
		default:
			i = len(Ramp) - 1
		}
		sb.WriteByte(Ramp[i])
	}
	return sb.String()
}

// IQLine draws IQ samples as 'I' and 'Q' markers on a console line, one
// panel per sample. Each panel is 2·half+1 characters wide with its center at
// zero; neighbouring panels share their border. scale converts a sample
// value to characters, so ±half/scale is full size.
func IQLine(samples []complex64, half int, scale float64) string {
	width := 2*half*len(samples) + 1
	buf := []byte(strings.Repeat(" ", width))
	for k := range samples {
		base := 2 * half * k
		buf[base] = '|'
		buf[base+half/2] = '.'
		buf[base+half] = '|'
		buf[base+half+half/2] = '.'
		buf[base+2*half] = '|'
	}
	for k, s := range samples {
		base := 2 * half * k
		ki := int(float64(real(s)) * scale)
		kq := int(float64(imag(s)) * scale)
		if ki >= -half && ki <= half {
			buf[base+half+ki] = 'I'
		}
		if kq >= -half && kq <= half {
			buf[base+half+kq] = 'Q'
		}
	}
	return string(buf)
}
