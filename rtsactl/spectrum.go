package main

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"math"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/dsp"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
)

// rawSpectrumChannel is the Rx1 spectra output of a raw mode device.
const rawSpectrumChannel = 2

func newRawSpectrumCmd(a *app) *cobra.Command {
	var (
		packets int
		width   int
	)
	cmd := &cobra.Command{
		Use:   "rawspectrum",
		Short: "Draw the raw mode FFT spectra as ASCII art",
		Long: `Stream the spectra computed by the device in raw mode and draw each one as a
line of characters, denser characters for stronger signals. Levels more than
69 dB below -10 dBm are drawn as '_'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.runProfile(ctx, "rawspectrum", func(d *rtsa.Device) error {
				if err := d.Start(); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				err := streamSpectra(ctx, d, rawSpectrumChannel, packets, func(p *rtsa.Packet, row []float32) {
					fmt.Fprintln(out, dsp.ASCIIRow(dsp.MaxHold(row, width), 10, false))
				})
				if canceled(err) {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().IntVar(&packets, "packets", 1000, "number of spectra packets to draw")
	cmd.Flags().IntVar(&width, "width", 128, "characters per spectrum")
	return cmd
}

func newSweepCmd(a *app) *cobra.Command {
	var (
		packets  int
		width    int
		plotPath string
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Draw swept spectra as ASCII art",
		Long: `Run the swept spectrum analyzer and draw each sweep as a line of characters.
With --plot the last sweep and the max hold over all sweeps are plotted to an
image file as well; the format follows the file extension.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.runProfile(ctx, "sweep", func(d *rtsa.Device) error {
				if err := d.Start(); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				hold := &maxHold{}
				err := streamSpectra(ctx, d, 0, packets, func(p *rtsa.Packet, row []float32) {
					fmt.Fprintf(out, "%s|\n", dsp.ASCIIRow(dsp.MaxHold(row, width), 0, true))
					hold.add(p, row)
				})
				if err != nil && !canceled(err) {
					return err
				}
				if plotPath == "" {
					return nil
				}
				if err := hold.save(plotPath); err != nil {
					return fmt.Errorf("unable to plot to %q: %w", plotPath, err)
				}
				glog.Infof("plotted %d sweeps to %s", hold.sweeps, plotPath)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&packets, "packets", 1000, "number of sweeps to draw")
	cmd.Flags().IntVar(&width, "width", 128, "characters per spectrum")
	cmd.Flags().StringVar(&plotPath, "plot", "", "plot the sweeps to this image file (.png, .svg, .pdf)")
	return cmd
}

// streamSpectra passes every spectrum row of the next packets packets on
// channel to fn.
func streamSpectra(ctx context.Context, d *rtsa.Device, channel, packets int, fn func(p *rtsa.Packet, row []float32)) error {
	for i := 0; i < packets; i++ {
		p, err := d.GetPacket(ctx, channel, 0, packetTimeout)
		if err != nil {
			return err
		}
		for s := 0; int64(s) < p.Num; s++ {
			fn(p, p.Row(s))
		}
		if err := d.ConsumePackets(channel, 1); err != nil {
			return err
		}
	}
	return nil
}

// maxHold keeps the last sweep and the per bin maximum of all sweeps.
type maxHold struct {
	freqs  []float64
	last   []float32
	peak   []float32
	sweeps int
}

func (h *maxHold) add(p *rtsa.Packet, row []float32) {
	if len(row) != len(h.peak) || len(h.freqs) == 0 || h.freqs[0] != p.StartFrequency {
		h.freqs = make([]float64, len(row))
		h.peak = make([]float32, len(row))
		for i := range row {
			h.freqs[i] = p.Frequency(i)
			h.peak[i] = float32(math.Inf(-1))
		}
		h.sweeps = 0
	}
	for i, v := range row {
		h.peak[i] = max(h.peak[i], v)
	}
	h.last = append(h.last[:0], row...)
	h.sweeps++
}

func (h *maxHold) xys(levels []float32) plotter.XYs {
	xys := make(plotter.XYs, len(levels))
	for i, v := range levels {
		xys[i].X = h.freqs[i] / 1e6
		xys[i].Y = float64(v)
	}
	return xys
}

func (h *maxHold) save(path string) error {
	if h.sweeps == 0 {
		return fmt.Errorf("no sweeps received")
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%d sweeps", h.sweeps)
	p.X.Label.Text = "MHz"
	p.Y.Label.Text = "dBm"
	p.Add(plotter.NewGrid())

	last, err := plotter.NewLine(h.xys(h.last))
	if err != nil {
		return err
	}
	peak, err := plotter.NewLine(h.xys(h.peak))
	if err != nil {
		return err
	}
	peak.LineStyle.Color = color.RGBA{R: 200, A: 160}
	p.Add(peak, last)
	p.Legend.Add("max hold", peak)
	p.Legend.Add("last", last)
	return p.Save(12*vg.Inch, 4*vg.Inch, path)
}

type sweepRange struct {
	start, stop, rbw float64
}

var stressRanges = []sweepRange{
	{800e6, 1000e6, 100e3},
	{900e6, 920e6, 20e3},
	{1000e6, 1300e6, 1000e3},
	{2000e6, 2400e6, 1000e3},
}

// rbwSeries steps the RBW of a 100 MHz sweep from 1 MHz down by 0.1
// decades.
func rbwSeries() []sweepRange {
	var ranges []sweepRange
	for i := 0; i <= 50; i++ {
		ranges = append(ranges, sweepRange{1.0e9, 1.1e9, 1.0e6 * math.Pow(10, -float64(i)/10)})
	}
	return ranges
}

func newSweepStressCmd(a *app) *cobra.Command {
	var (
		iterations int
		series     bool
	)
	cmd := &cobra.Command{
		Use:   "sweepstress",
		Short: "Reconfigure the sweep range over and over",
		Long: `Restart the swept spectrum analyzer with a sequence of frequency ranges and
compare the requested range and RBW with those of the first spectrum of every
run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ranges := stressRanges
			if series {
				ranges = rbwSeries()
				iterations = 1
			}
			ctx := cmd.Context()
			return a.runProfile(ctx, "sweepstress", func(d *rtsa.Device) error {
				if err := d.Connect(); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for i := 0; i < iterations; i++ {
					for _, r := range ranges {
						err := testRange(ctx, d, out, r)
						if canceled(err) {
							return nil
						}
						if err != nil {
							return err
						}
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&iterations, "iterations", 10000, "number of passes over the ranges")
	cmd.Flags().BoolVar(&series, "rbw-series", false, "run a single pass over a series of RBWs instead")
	return cmd
}

func testRange(ctx context.Context, d *rtsa.Device, out io.Writer, r sweepRange) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(20 * time.Millisecond):
	}
	if _, err := d.DrainPackets(0); err != nil {
		return err
	}
	if err := d.Configure([]rtsa.Setting{
		{Path: "main/startfreq", Value: r.start},
		{Path: "main/stopfreq", Value: r.stop},
		{Path: "main/rbwfreq", Value: r.rbw},
	}); err != nil {
		return err
	}
	if err := d.Start(); err != nil {
		return err
	}

	for {
		p, err := d.GetPacket(ctx, 0, 0, packetTimeout)
		if err != nil {
			d.Stop()
			return err
		}
		if p.Flags.Has(rtsa.FlagStreamStart) {
			fmt.Fprintf(out, "I: %g, %g, %g O: %g, %g, %g S: %d\n",
				r.start, r.stop, r.rbw, p.StartFrequency, p.StartFrequency+p.SpanFrequency, p.RBWFrequency, p.Size)
			break
		}
		if err := d.ConsumePackets(0, 1); err != nil {
			d.Stop()
			return err
		}
	}
	return d.Stop()
}
