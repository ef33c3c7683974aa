package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
)

func newGeneratorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generator",
		Short: "Run the built-in pattern generator",
		Long: `Start the pattern generator of the device and keep it running until Enter is
pressed or the command is interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.runProfile(ctx, "generator", func(d *rtsa.Device) error {
				if err := d.Start(); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "\nbringing up device (SN: %s)\n", d.Serial())
				if err := d.WaitState(ctx, rtsa.StatusRunning); err != nil {
					if canceled(err) {
						return nil
					}
					return err
				}
				fmt.Fprint(out, "\nstarting generator....\n")
				fmt.Fprint(out, "\nPress Enter to stop...\n")
				waitEnter(ctx, cmd.InOrStdin())
				return nil
			})
		},
	}
}

// waitEnter returns once a line was read from in, in is exhausted or ctx is
// done.
func waitEnter(ctx context.Context, in io.Reader) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bufio.NewReader(in).ReadString('\n')
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// chirp returns a 0 dBm linear chirp over the full sample rate and its time
// reversed twin, as interleaved IQ.
func chirp(n int) (up, down []float32) {
	zeroDBm := math.Sqrt(1.0 / 20.0)
	up = make([]float32, 2*n)
	down = make([]float32, 2*n)
	var w float64
	for i := 0; i < n; i++ {
		phi := (float64(i)/float64(n)*2 - 1) * math.Pi
		w += phi
		up[2*i] = float32(math.Sin(w) * zeroDBm)
		up[2*i+1] = float32(math.Cos(w) * zeroDBm)
		down[2*i] = float32(math.Sin(-w) * zeroDBm)
		down[2*i+1] = float32(math.Cos(-w) * zeroDBm)
	}
	return up, down
}

// waitStreamTime sleeps until the stream time of d is at least t-lead.
func waitStreamTime(ctx context.Context, d *rtsa.Device, t, lead float64) error {
	for {
		now, err := d.StreamTime()
		if err != nil {
			return err
		}
		if now+lead >= t {
			return nil
		}
		wait := time.Duration((t - now - lead + 0.005) * float64(time.Second))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func newTransmitterCmd(a *app) *cobra.Command {
	var (
		packets int
		samples int
		freq    float64
		rate    float64
	)
	cmd := &cobra.Command{
		Use:   "transmitter",
		Short: "Transmit a sequence of chirps",
		Long: `Transmit packets of alternating up and down chirps back to back, starting
200 ms into the future. Each packet is handed to the device shortly before it
is due.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if packets <= 0 || samples <= 0 || rate <= 0 {
				return fmt.Errorf("packets, samples and rate must be positive")
			}
			ctx := cmd.Context()
			return a.runProfile(ctx, "transmitter", func(d *rtsa.Device) error {
				if err := d.Start(); err != nil {
					return err
				}
				err := transmitChirps(ctx, d, packets, samples, freq, rate)
				if canceled(err) {
					return nil
				}
				if err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "transmitted %d packets\n", packets)
				}
				return err
			})
		},
	}
	cmd.Flags().IntVar(&packets, "packets", 100, "number of packets to transmit")
	cmd.Flags().IntVar(&samples, "samples", 16384, "IQ samples per packet")
	cmd.Flags().Float64Var(&freq, "freq", 2430e6, "start frequency of the packets in Hz")
	cmd.Flags().Float64Var(&rate, "rate", 1e6, "IQ sample rate in Hz")
	return cmd
}

func transmitChirps(ctx context.Context, d *rtsa.Device, packets, samples int, freq, rate float64) error {
	up, down := chirp(samples)
	now, err := d.StreamTime()
	if err != nil {
		return err
	}
	p := &rtsa.Packet{
		StartFrequency: freq,
		StepFrequency:  rate,
		StartTime:      now + 0.2,
		Num:            int64(samples),
		Total:          int64(samples),
		Size:           2,
		Stride:         2,
	}
	for i := 0; i < packets; i++ {
		p.EndTime = p.StartTime + float64(p.Num)/p.StepFrequency
		p.Samples = up
		if i&1 == 1 {
			p.Samples = down
		}
		if err := waitStreamTime(ctx, d, p.StartTime, 0.05); err != nil {
			return err
		}
		switch {
		case i == 0:
			p.Flags = rtsa.FlagSegmentStart | rtsa.FlagStreamStart
		case i+1 == packets:
			p.Flags = rtsa.FlagSegmentEnd | rtsa.FlagStreamEnd
		default:
			p.Flags = 0
		}
		if err := d.SendPacket(0, p); err != nil {
			return err
		}
		glog.V(2).Infof("sent packet %d for %.6f", i, p.StartTime)
		p.StartTime = p.EndTime
	}
	// Let the last packet go out before the device is stopped.
	return waitStreamTime(ctx, d, p.StartTime, 0)
}

func newTransceiverCmd(a *app) *cobra.Command {
	var (
		packets int
		delay   float64
		freq    float64
	)
	cmd := &cobra.Command{
		Use:   "transceiver",
		Short: "Retransmit received IQ on another frequency",
		Long: `Receive IQ packets and send each one back out, delayed and centered on a new
frequency. Packets that are already too old to be sent in time are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.runProfile(ctx, "transceiver", func(d *rtsa.Device) error {
				if err := d.Start(); err != nil {
					return err
				}
				sent, err := retransmit(ctx, d, packets, delay, freq)
				fmt.Fprintf(cmd.OutOrStdout(), "retransmitted %d packets\n", sent)
				if canceled(err) {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().IntVar(&packets, "packets", 1000, "number of packets to receive")
	cmd.Flags().Float64Var(&delay, "delay", 0.2, "delay in seconds between reception and transmission")
	cmd.Flags().Float64Var(&freq, "freq", 2450e6, "center frequency of the retransmitted packets in Hz")
	return cmd
}

// retransmit returns the number of packets sent.
func retransmit(ctx context.Context, d *rtsa.Device, packets int, delay, freq float64) (int, error) {
	sent := 0
	for i := 0; i < packets; i++ {
		p, err := d.GetPacket(ctx, 0, 0, packetTimeout)
		if err != nil {
			return sent, err
		}
		now, err := d.StreamTime()
		if err != nil {
			return sent, err
		}
		if p.StartTime > now-0.1 {
			p.StartTime += delay
			p.EndTime += delay
			p.StartFrequency = freq - 0.5*p.StepFrequency
			if err := d.SendPacket(0, p); err != nil {
				return sent, err
			}
			sent++
		}
		if err := d.ConsumePackets(0, 1); err != nil {
			return sent, err
		}
	}
	return sent, nil
}
