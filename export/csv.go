package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/sdr"
)

var csvHeader = []string{
	"Source",
	"Identifier",
	"FreqCenter",
	"FreqLow",
	"FreqHigh",
	"StartUnixMilli",
	"EndUnixMilli",
	"dBLow",
	"dBHigh",
	"dbAvg",
	"SampleCount",
}

// CSV writes one line per sample to stdout, or to File when set. File is
// rotated once it grows beyond MaxSizeMB.
type CSV struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
}

func (c *CSV) output() io.WriteCloser {
	if c.File == "" {
		return nopCloser{os.Stdout}
	}
	return &lumberjack.Logger{
		Filename:   c.File,
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		Compress:   c.Compress,
	}
}

func (c *CSV) Write(ctx context.Context, samples <-chan sdr.Sample) error {
	out := c.output()
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("unable to write CSV header: %s", err)
	}

	for s := range samples {
		if err := w.Write(csvRecord(s)); err != nil {
			glog.Warningf("error while writing CSV line: %s\n", err)
		}

		w.Flush()
		if err := w.Error(); err != nil {
			glog.Warningf("error flushing CSV: %s\n", err)
		}
	}
	return nil
}

func csvRecord(s sdr.Sample) []string {
	return []string{
		s.Source,
		s.Identifier,
		fmt.Sprintf("%d", s.FreqCenter),
		fmt.Sprintf("%d", s.FreqLow),
		fmt.Sprintf("%d", s.FreqHigh),
		fmt.Sprintf("%d", s.Start.UnixMilli()),
		fmt.Sprintf("%d", s.End.UnixMilli()),
		fmt.Sprintf("%f", s.DBLow),
		fmt.Sprintf("%f", s.DBHigh),
		fmt.Sprintf("%f", s.DBAvg),
		fmt.Sprintf("%d", s.SampleCount),
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
