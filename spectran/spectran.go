// Package spectran collects sweep spectra from a Spectran V6 running in
// sweepsa mode and turns them into aggregated per bin samples.
package spectran

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang/glog"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/sdr"
)

const (
	SourceName = "spectran"

	defaultPacketTimeout = time.Second

	// flushGrace is how long the consumer has to take the last, partial
	// integration interval once the sweep ends.
	flushGrace = time.Second
)

type SDR struct {
	Identifier string
	// Device must be open in sweepsa mode. Sweep configures, starts and
	// stops it but leaves closing to the caller.
	Device *rtsa.Device
	// PacketTimeout bounds the wait for a single spectrum.
	PacketTimeout time.Duration

	buckets map[int64]sdr.Sample
	// window is the index of the integration interval being aggregated,
	// counted from origin in stream time.
	window int64
	origin float64
}

func (s SDR) Name() string {
	return SourceName
}

func (s *SDR) Sweep(ctx context.Context, opts *sdr.Options, samples chan<- sdr.Sample) error {
	defer close(samples)

	if s.Device == nil {
		return errors.New("spectran: no device")
	}
	if m := s.Device.Mode(); m != rtsa.ModeSweepSA {
		return fmt.Errorf("spectran: device is open in mode %q, need %q", m, rtsa.ModeSweepSA)
	}
	if opts.HighFreq <= opts.LowFreq {
		return fmt.Errorf("spectran: invalid frequency range %d - %d", opts.LowFreq, opts.HighFreq)
	}
	if opts.IntegrationInterval <= 0 {
		return fmt.Errorf("spectran: invalid integration interval %s", opts.IntegrationInterval)
	}
	timeout := s.PacketTimeout
	if timeout <= 0 {
		timeout = defaultPacketTimeout
	}

	if err := s.Device.Configure([]rtsa.Setting{
		{Path: "main/startfreq", Value: float64(opts.LowFreq)},
		{Path: "main/stopfreq", Value: float64(opts.HighFreq)},
		{Path: "main/rbwfreq", Value: float64(opts.BinSize)},
	}); err != nil {
		return err
	}
	if err := s.Device.Start(); err != nil {
		return err
	}
	defer func() {
		if err := s.Device.Stop(); err != nil {
			glog.Warningf("unable to stop %s: %s\n", s.Device, err)
		}
	}()
	glog.Infof("Running Spectran sweep: %d - %d Hz, RBW %d Hz\n", opts.LowFreq, opts.HighFreq, opts.BinSize)

	s.buckets = map[int64]sdr.Sample{}
	s.window = -1
	defer s.finish(ctx, samples)
	for {
		p, err := s.Device.GetPacket(ctx, 0, 0, timeout)
		switch {
		case errors.Is(err, rtsa.ErrTimeout):
			glog.Warningf("no spectrum from %s within %s\n", s.Device, timeout)
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil
		case err != nil:
			return err
		}

		if err := s.add(ctx, p, opts, samples); err != nil {
			// ctx is done.
			return nil
		}
		if err := s.Device.ConsumePackets(0, 1); err != nil {
			return err
		}
	}
}

// add aggregates the bins of p. Buckets are emitted once a packet of a later
// integration interval arrives.
func (s *SDR) add(ctx context.Context, p *rtsa.Packet, opts *sdr.Options, samples chan<- sdr.Sample) error {
	if s.window < 0 || p.Flags.Has(rtsa.FlagStreamStart) {
		if err := s.flush(ctx, samples); err != nil {
			return err
		}
		s.origin = p.StartTime
		s.window = 0
	}
	if w := int64(math.Floor((p.StartTime - s.origin) / opts.IntegrationInterval.Seconds())); w != s.window {
		if err := s.flush(ctx, samples); err != nil {
			return err
		}
		s.window = w
	}

	for _, sample := range s.convert(p, opts) {
		stored, ok := s.buckets[sample.FreqCenter]
		if !ok {
			s.buckets[sample.FreqCenter] = sample
			continue
		}
		stored.Merge(sample)
		s.buckets[sample.FreqCenter] = stored
	}
	return nil
}

// flush emits and removes every bucket. Buckets not taken before ctx is done
// are kept.
func (s *SDR) flush(ctx context.Context, samples chan<- sdr.Sample) error {
	n := len(s.buckets)
	if n == 0 {
		return nil
	}
	for freq, sample := range s.buckets {
		select {
		case samples <- sample:
			delete(s.buckets, freq)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	glog.V(2).Infof("emitted %d buckets\n", n)
	return nil
}

// finish emits the integration interval still being aggregated when the
// sweep ends, even if ctx is already done.
func (s *SDR) finish(ctx context.Context, samples chan<- sdr.Sample) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushGrace)
	defer cancel()
	if err := s.flush(ctx, samples); err != nil {
		glog.Warningf("dropped %d buckets of the last integration interval: %s\n", len(s.buckets), err)
	}
}

// convert turns one spectrum into a sample per bin.
func (s *SDR) convert(p *rtsa.Packet, opts *sdr.Options) []sdr.Sample {
	row := p.Row(0)
	start := rtsa.StreamTimeToTime(p.StartTime)
	end := rtsa.StreamTimeToTime(p.EndTime)
	freqHigh := int64(p.StartFrequency + p.SpanFrequency)
	if p.SpanFrequency <= 0 {
		freqHigh = int64(p.Frequency(len(row)))
	}

	out := make([]sdr.Sample, 0, len(row))
	for i, db := range row {
		low, high := calculateBinRange(int64(p.StartFrequency), freqHigh, p.StepFrequency, i)
		if high <= opts.LowFreq || low >= opts.HighFreq {
			continue
		}
		out = append(out, sdr.Sample{
			Identifier:  s.Identifier,
			Source:      s.Name(),
			FreqCenter:  (low + high) / 2,
			FreqLow:     low,
			FreqHigh:    high,
			DBLow:       float64(db),
			DBHigh:      float64(db),
			DBAvg:       float64(db),
			SampleCount: 1,
			Start:       start,
			End:         end,
		})
	}
	return out
}

// calculateBinRange calculates the highest and lowest frequencies in a bin
func calculateBinRange(freqLow, freqHigh int64, binWidth float64, binNum int) (int64, int64) {
	low := freqLow + int64(math.Round(float64(binNum)*binWidth))
	high := freqLow + int64(math.Round(float64(binNum+1)*binWidth))
	if high > freqHigh {
		high = freqHigh
	}
	return low, high
}
