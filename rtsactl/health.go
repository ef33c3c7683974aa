package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
)

// pollHealth calls fn with the health tree of d count times, interval apart.
func pollHealth(ctx context.Context, d *rtsa.Device, count int, interval time.Duration, fn func(i int, health *rtsa.ConfigNode)) error {
	for i := 0; i < count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(interval):
			}
		}
		health, err := d.HealthRoot()
		if err != nil {
			return err
		}
		fn(i, health)
	}
	return nil
}

// healthFloat reads a number from the health tree. Missing or unreadable
// entries read as zero.
func healthFloat(health *rtsa.ConfigNode, path string) float64 {
	n, err := health.Find(path)
	if err != nil {
		glog.V(2).Infof("health %s: %s", path, err)
		return 0
	}
	v, err := n.Float()
	if err != nil {
		glog.V(2).Infof("health %s: %s", path, err)
	}
	return v
}

func newGPSTimeCmd(a *app) *cobra.Command {
	var (
		count    int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "gpstime",
		Short: "Poll the GPS state of the device",
		Long: `Enable GPS location and time with the GPS disciplined sample clock and print
the number of satellites and the GPS time from the health tree.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.runProfile(ctx, "gpstime", func(d *rtsa.Device) error {
				if err := d.Connect(); err != nil {
					return err
				}
				return pollHealth(ctx, d, count, interval, func(_ int, health *rtsa.ConfigNode) {
					printGPS(cmd.OutOrStdout(), health)
				})
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 3600, "number of polls")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "time between polls")
	return cmd
}

func printGPS(out io.Writer, health *rtsa.ConfigNode) {
	var (
		sats  int64
		valid bool
	)
	if n, err := health.Find("gpssats"); err == nil {
		sats, _ = n.Int()
	}
	if n, err := health.Find("gpstimevalid"); err == nil {
		v, _ := n.Int()
		valid = v != 0
	}
	fmt.Fprintf(out, "GPS %d Sats %t Valid %.3f, %g\n", sats, valid, healthFloat(health, "gpstime"), healthFloat(health, "gpstimeoffset"))
}

func newTransferRateCmd(a *app) *cobra.Command {
	var (
		count    int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "transferrate",
		Short: "Poll the USB transfer rate while streaming",
		Long: `Stream full rate IQ and print the USB transfer rates and IQ sample rate
reported in the health tree. The received packets are discarded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.runProfile(ctx, "transferrate", func(d *rtsa.Device) error {
				if err := d.Start(); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return pollHealth(ctx, d, count, interval, func(i int, health *rtsa.ConfigNode) {
					if _, err := d.DrainPackets(0); err != nil {
						glog.Warningf("unable to drain packets: %s", err)
					}
					fmt.Fprintf(out, "Transfer %d : %g + %g Samples: %g\n", i,
						healthFloat(health, "mainusbbytessecond"),
						healthFloat(health, "boostusbbytessecond"),
						healthFloat(health, "rx1iqsamplessecond"))
				})
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 100, "number of polls")
	cmd.Flags().DurationVar(&interval, "interval", 200*time.Millisecond, "time between polls")
	return cmd
}
