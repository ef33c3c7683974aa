package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/dsp"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
)

const (
	// packetTimeout bounds the wait for the next packet of a running stream.
	packetTimeout = 10 * time.Second

	// iqScale maps a sample value to console columns: ±1 mV fills a panel.
	iqScale = 1000
)

func newIQReceiverCmd(a *app) *cobra.Command {
	var packets int
	cmd := &cobra.Command{
		Use:   "iqreceiver",
		Short: "Draw received IQ samples on the console",
		Long: `Stream IQ from the receiver and draw every sample as one console line with
an I and a Q marker. The power and the strongest frequency of the last packet
are printed at the end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.runProfile(ctx, "iqreceiver", func(d *rtsa.Device) error {
				if err := d.Start(); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				var last *rtsa.Packet
				for i := 0; i < packets; i++ {
					p, err := d.GetPacket(ctx, 0, 0, packetTimeout)
					if canceled(err) {
						return nil
					}
					if err != nil {
						return err
					}
					for _, s := range p.IQ() {
						fmt.Fprintln(out, dsp.IQLine([]complex64{s}, 50, 50*iqScale))
					}
					last = p
					if err := d.ConsumePackets(0, 1); err != nil {
						return err
					}
				}
				if last != nil {
					printIQSummary(out, last)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&packets, "packets", 10, "number of packets to draw")
	return cmd
}

func printIQSummary(out io.Writer, p *rtsa.Packet) {
	iq := p.IQ()
	spectrum := dsp.Spectrum(iq)
	k := dsp.PeakBin(spectrum)
	if k < 0 {
		return
	}
	n := len(spectrum)
	center := p.StartFrequency + p.SpanFrequency/2
	freq := center + float64(k-n/2)*p.StepFrequency/float64(n)
	fmt.Fprintf(out, "Power %.1f dBm, peak %.1f dBm at %.0f Hz\n", dsp.PowerDBm(iq), spectrum[k], freq)
}

func newRawIQCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rawiq [count]",
		Short: "Print a table of received raw IQ packets",
		Long: `Stream full rate raw IQ and print the metadata and signal energy of every
packet. Stops after count packets, or when interrupted if no count is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := countArg(args, 0)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.runProfile(ctx, "rawiq", func(d *rtsa.Device) error {
				if err := d.Start(); err != nil {
					return err
				}
				// Wait for the stream to come up.
				if _, err := d.GetPacket(ctx, 0, 0, packetTimeout); err != nil {
					if canceled(err) {
						return nil
					}
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprint(out, "\nReceiving packets:\n")
				fmt.Fprint(out, "|    i    | streamID |    flags   |     startTime    |      endTime     | startFrequency |  stepFrequency | spanFrequency | rbwFrequency |   num   |  size  | signalEnergy |\n")
				fmt.Fprint(out, "|---------|----------|------------|------------------|------------------|----------------|----------------|---------------|--------------|---------|--------|--------------|\n")
				for i := 0; count == 0 || i < count; {
					p, err := d.GetPacket(ctx, 0, 0, 100*time.Millisecond)
					switch {
					case errors.Is(err, rtsa.ErrTimeout):
						continue
					case canceled(err):
						return nil
					case err != nil:
						return err
					}
					fmt.Fprintf(out, "|%8d | %8d | 0x%08x | %16.5f | %16.5f | %14.0f | %14.0f | %13.0f | %12.0f | %7d | %6d | %e |\n",
						i, p.StreamID, uint64(p.Flags), p.StartTime, p.EndTime, p.StartFrequency, p.StepFrequency,
						p.SpanFrequency, p.RBWFrequency, p.Num, p.Size, dsp.Energy(p.IQ()))
					i++
					if err := d.ConsumePackets(0, 1); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newRawIQ2RXCmd(a *app) *cobra.Command {
	var packets int
	cmd := &cobra.Command{
		Use:   "rawiq2rx",
		Short: "Draw time aligned IQ of both receivers side by side",
		Long: `Stream raw IQ from Rx1 and Rx2, align the two channels by their packet stream
times and draw the samples of both as one console line per sample pair.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.runProfile(ctx, "rawiq2rx", func(d *rtsa.Device) error {
				if err := d.Start(); err != nil {
					return err
				}
				err := streamIQ2RX(ctx, d, cmd.OutOrStdout(), packets)
				if canceled(err) {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().IntVar(&packets, "packets", 10, "number of Rx1 packets to draw, packets without Rx2 overlap do not count")
	return cmd
}

// streamIQ2RX draws the overlapping samples of both channels until samples
// of count packets of channel 0 were drawn.
func streamIQ2RX(ctx context.Context, d *rtsa.Device, out io.Writer, count int) error {
	var (
		packets [2]*rtsa.Packet
		iq      [2][]complex64
		pos     [2]int
	)
	next := func(ch int) error {
		p, err := d.GetPacket(ctx, ch, 0, packetTimeout)
		if err != nil {
			return err
		}
		packets[ch], iq[ch], pos[ch] = p, p.IQ(), 0
		return nil
	}
	for ch := range packets {
		if err := next(ch); err != nil {
			return err
		}
	}

	for drawn := 0; drawn < count; {
		p0, p1 := packets[0], packets[1]
		switch {
		case p0.EndTime < p1.StartTime:
			pos[0] = len(iq[0])
		case p1.EndTime < p0.StartTime:
			pos[1] = len(iq[1])
		case p0.StartTime < p1.StartTime:
			pos[1] = 0
			pos[0] = int((p1.StartTime - p0.StartTime) * p0.StepFrequency)
		default:
			pos[0] = 0
			pos[1] = int((p0.StartTime - p1.StartTime) * p0.StepFrequency)
		}

		if pos[0] < len(iq[0]) && pos[1] < len(iq[1]) {
			drawn++
		}
		for pos[0] < len(iq[0]) && pos[1] < len(iq[1]) {
			fmt.Fprintln(out, dsp.IQLine([]complex64{iq[0][pos[0]], iq[1][pos[1]]}, 20, 20*iqScale))
			pos[0]++
			pos[1]++
		}

		for ch := range packets {
			if pos[ch] < len(iq[ch]) {
				continue
			}
			if err := d.ConsumePackets(ch, 1); err != nil {
				return err
			}
			if err := next(ch); err != nil {
				return err
			}
		}
	}
	return nil
}

func newSampleRateCmd(a *app) *cobra.Command {
	var (
		count  int
		report int
	)
	cmd := &cobra.Command{
		Use:   "samplerate",
		Short: "Measure the raw IQ sample rate and report dropped packets",
		Long: `Stream raw IQ and compare the number of received samples against the wall
clock. A gap between the end of a packet and the start of the next is reported
as a drop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if report <= 0 {
				return fmt.Errorf("invalid report interval %d", report)
			}
			ctx := cmd.Context()
			return a.runProfile(ctx, "samplerate", func(d *rtsa.Device) error {
				if err := d.Start(); err != nil {
					return err
				}
				err := measureSampleRate(ctx, d, cmd.OutOrStdout(), count, report)
				if canceled(err) {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "number of packets to receive, 0 runs until interrupted")
	cmd.Flags().IntVar(&report, "report", 1000, "print the measured rate every this many packets")
	return cmd
}

func measureSampleRate(ctx context.Context, d *rtsa.Device, out io.Writer, count, report int) error {
	var (
		samples int64
		start   time.Time
		prevEnd float64
	)
	for n := 0; count == 0 || n < count; {
		p, err := d.GetPacket(ctx, 0, 0, packetTimeout)
		if err != nil {
			return err
		}
		if n == 0 {
			start = time.Now()
		} else if gap := p.StartTime - prevEnd; math.Abs(gap) > 1e-9 {
			fmt.Fprintf(out, "Drop %g\n", gap)
		}
		prevEnd = p.EndTime
		n++
		if err := d.ConsumePackets(0, 1); err != nil {
			return err
		}

		if n%report == 0 {
			elapsed := time.Since(start)
			ms := float64(elapsed) / float64(time.Millisecond)
			rate := float64(samples) / elapsed.Seconds()
			fmt.Fprintf(out, "Samples : %d Millis : %d Rate %.12g err %.6g%% (%.6g%%)\n",
				samples, elapsed.Milliseconds(), rate, (rate-p.StepFrequency)/p.StepFrequency*100, 2000/ms)
		}
		samples += p.Num
	}
	return nil
}
