package main

/*
This application renders waterfalls for spectra collected with the
collection tool into sqlite.
*/

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/extraction"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/spectran"

	// Blind import support for sqlite3 used by extraction.
	_ "github.com/mattn/go-sqlite3"
)

const timeFmt = "2006-01-02T15:04:05"

// Flags
var (
	sqliteFile   = flag.String("sqliteFile", "/tmp/spectre", "File path of the sqlite DB file to use.")
	source       = flag.String("source", spectran.SourceName, "Source type the samples were collected with.")
	identifier   = flag.String("id", "%", "Identifier of the collector, SQL LIKE patterns are allowed.")
	startFreq    = flag.Int64("startFreq", 0, "Select samples starting with this frequency in Hz.")
	endFreq      = flag.Int64("endFreq", math.MaxInt64, "Select samples up to this frequency in Hz.")
	startTimeRaw = flag.String("startTime", "2000-01-02T15:04:05", "Select samples collected after this time. Format: 2006-01-02T15:04:05")
	endTimeRaw   = flag.String("endTime", "2100-01-02T15:04:05", "Select samples collected before this time. Format: 2006-01-02T15:04:05")
	imgPath      = flag.String("imgPath", "/tmp/out.jpg", "Path where the rendered image should be written to (.png or .jpg).")
	imgWidth     = flag.Int("imgWidth", 0, "Width of output image in pixels, 0 uses one pixel per frequency bin.")
	imgHeight    = flag.Int("imgHeight", 0, "Height of output image in pixels, 0 uses one pixel per sweep.")
	addGrid      = flag.Bool("grid", true, "Draw a frequency and time grid around the waterfall.")
	minDB        = flag.Float64("minDB", 0, "Level in dBm drawn with the coldest color.")
	maxDB        = flag.Float64("maxDB", 0, "Level in dBm drawn with the hottest color. Unless it is above -minDB the scale spans the selected samples.")
)

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()
	defer glog.Flush()

	startTime, err := time.Parse(timeFmt, *startTimeRaw)
	if err != nil {
		glog.Exitf("unable to parse startTime (value: %q, format: %q): %s", *startTimeRaw, timeFmt, err)
	}
	endTime, err := time.Parse(timeFmt, *endTimeRaw)
	if err != nil {
		glog.Exitf("unable to parse endTime (value: %q, format: %q): %s", *endTimeRaw, timeFmt, err)
	}

	db, err := sql.Open("sqlite3", *sqliteFile)
	if err != nil {
		glog.Exitf("unable to open sqlite DB %q: %s", *sqliteFile, err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := extraction.Render(ctx, db, &extraction.RenderRequest{
		Filter: &extraction.FilterOptions{
			Source:     *source,
			Identifier: *identifier,
			StartFreq:  *startFreq,
			EndFreq:    *endFreq,
			StartTime:  startTime,
			EndTime:    endTime,
		},
		Image: &extraction.ImageOptions{
			Height:  *imgHeight,
			Width:   *imgWidth,
			MinDB:   float32(*minDB),
			MaxDB:   float32(*maxDB),
			AddGrid: *addGrid,
		},
	})
	if err != nil {
		glog.Exitf("unable to render waterfall: %s", err)
	}

	fmt.Println("Selected source metadata:")
	fmt.Printf("  - Low frequency: %d Hz\n", res.SourceMeta.LowFreq)
	fmt.Printf("  - High frequency: %d Hz\n", res.SourceMeta.HighFreq)
	fmt.Printf("  - Start time: %s (%d)\n", res.SourceMeta.StartTime.Format(timeFmt), res.SourceMeta.StartTime.Unix())
	fmt.Printf("  - End time: %s (%d)\n", res.SourceMeta.EndTime.Format(timeFmt), res.SourceMeta.EndTime.Unix())
	fmt.Printf("  - Duration: %s\n", res.SourceMeta.EndTime.Sub(res.SourceMeta.StartTime))
	fmt.Printf("  - Levels: %.1f to %.1f dBm\n", res.SourceMeta.MinDB, res.SourceMeta.MaxDB)
	fmt.Printf("Rendered image (%d x %d): %.0f Hz and %.3f s per pixel\n", res.ImageMeta.ImageWidth, res.ImageMeta.ImageHeight, res.ImageMeta.FreqPerPixel, res.ImageMeta.SecPerPixel)

	fmt.Printf("Writing image to %q\n", *imgPath)
	f, err := os.Create(*imgPath)
	if err != nil {
		glog.Exitf("unable to create %q: %s", *imgPath, err)
	}
	defer f.Close()
	switch {
	case strings.HasSuffix(*imgPath, ".png"):
		err = png.Encode(f, res.Image)
	case strings.HasSuffix(*imgPath, ".jpg"), strings.HasSuffix(*imgPath, ".jpeg"):
		err = jpeg.Encode(f, res.Image, &jpeg.Options{Quality: jpeg.DefaultQuality})
	default:
		err = fmt.Errorf("unsupported image format, use .png or .jpg")
	}
	if err != nil {
		glog.Errorf("unable to write image %q: %s", *imgPath, err)
	}
}
