package extraction

import (
	"context"
	"database/sql"
	"errors"
	"image/color"
	"math"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/export"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/sdr"
)

func TestColor(t *testing.T) {
	tests := []struct {
		lvl  uint16
		want color.RGBA
	}{
		{lvl: 0, want: color.RGBA{0, 0, 0, 255}},
		{lvl: math.MaxUint16 / 6, want: color.RGBA{0, 0, 255, 255}},
		{lvl: math.MaxUint16 / 12, want: color.RGBA{0, 0, 127, 255}},
		{lvl: math.MaxUint16, want: color.RGBA{255, 255, 255, 255}},
	}
	for _, tc := range tests {
		if got := Color(tc.lvl); got != tc.want {
			t.Errorf("Color(%d) = %v, want %v", tc.lvl, got, tc.want)
		}
	}
}

func TestReadableFreq(t *testing.T) {
	tests := map[int64]string{
		999:        "999.00 Hz",
		12500:      "12.50 kHz",
		433920000:  "433.92 MHz",
		2441500000: "2.44 GHz",
	}
	for freq, want := range tests {
		if got := ReadableFreq(freq); got != want {
			t.Errorf("ReadableFreq(%d) = %q, want %q", freq, got, want)
		}
	}
}

func TestGridStep(t *testing.T) {
	if got := gridStep(640, minStepX); got != 160 {
		t.Errorf("gridStep(640, minStepX) = %d, want 160", got)
	}
	if got := gridStep(480, minStepY); got != 30 {
		t.Errorf("gridStep(480, minStepY) = %d, want 30", got)
	}
}

// openWaterfall stores a 4 bin x 3 sweep waterfall with a single hot pixel in
// bin 2 of sweep 1.
func openWaterfall(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "spectre.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	t0 := time.UnixMilli(1700000000000)
	samples := make(chan sdr.Sample, 12)
	for sweep := 0; sweep < 3; sweep++ {
		for bin := 0; bin < 4; bin++ {
			low := int64(2400000000 + bin*1000000)
			level := -100.0
			if bin == 2 && sweep == 1 {
				level = -40
			}
			start := t0.Add(time.Duration(sweep) * time.Second)
			samples <- sdr.Sample{
				Identifier:  "test",
				Source:      "spectran",
				FreqCenter:  low + 500000,
				FreqLow:     low,
				FreqHigh:    low + 1000000,
				DBHigh:      level,
				DBLow:       level,
				DBAvg:       level,
				SampleCount: 1,
				Start:       start,
				End:         start.Add(500 * time.Millisecond),
			}
		}
	}
	close(samples)
	if err := (&export.SQLite{DB: db}).Write(context.Background(), samples); err != nil {
		t.Fatalf("unable to store samples: %s", err)
	}
	return db
}

func filterAll() *FilterOptions {
	return &FilterOptions{
		Source:     "spectran",
		Identifier: "%",
		StartFreq:  0,
		EndFreq:    math.MaxInt64,
		StartTime:  time.UnixMilli(1600000000000),
		EndTime:    time.UnixMilli(1800000000000),
	}
}

func TestRender(t *testing.T) {
	db := openWaterfall(t)

	res, err := Render(context.Background(), db, &RenderRequest{
		Filter: filterAll(),
		Image:  &ImageOptions{},
	})
	if err != nil {
		t.Fatalf("Render() = %s", err)
	}
	if b := res.Image.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("image is %d x %d, want 4 x 3", b.Dx(), b.Dy())
	}
	if res.SourceMeta.LowFreq != 2400000000 || res.SourceMeta.HighFreq != 2404000000 {
		t.Errorf("frequency range = %d - %d", res.SourceMeta.LowFreq, res.SourceMeta.HighFreq)
	}
	if want := time.UnixMilli(1700000002500); !res.SourceMeta.EndTime.Equal(want) {
		t.Errorf("end time = %s, want %s", res.SourceMeta.EndTime, want)
	}
	if res.ImageMeta.FreqPerPixel != 1e6 {
		t.Errorf("FreqPerPixel = %f, want 1e6", res.ImageMeta.FreqPerPixel)
	}

	white := color.RGBA{255, 255, 255, 255}
	black := color.RGBA{0, 0, 0, 255}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			want := black
			if x == 2 && y == 1 {
				want = white
			}
			if got := res.Image.At(x, y); got != want {
				t.Errorf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRenderGrid(t *testing.T) {
	db := openWaterfall(t)
	res, err := Render(context.Background(), db, &RenderRequest{
		Filter: filterAll(),
		Image:  &ImageOptions{Width: 100, Height: 100, AddGrid: true},
	})
	if err != nil {
		t.Fatalf("Render() = %s", err)
	}
	// The requested size is capped to the data, the grid adds margins.
	if b := res.Image.Bounds(); b.Dx() != 4-1+marginLeft || b.Dy() != 3-1+marginTop {
		t.Errorf("image with grid is %d x %d", b.Dx(), b.Dy())
	}
}

func TestRenderNoSamples(t *testing.T) {
	db := openWaterfall(t)
	f := filterAll()
	f.Source = "hackrf"
	if _, err := Render(context.Background(), db, &RenderRequest{Filter: f, Image: &ImageOptions{}}); !errors.Is(err, ErrNoSamples) {
		t.Errorf("Render() = %v, want %v", err, ErrNoSamples)
	}
}

func TestRenderFixedScale(t *testing.T) {
	db := openWaterfall(t)
	res, err := Render(context.Background(), db, &RenderRequest{
		Filter: filterAll(),
		Image:  &ImageOptions{MinDB: -120, MaxDB: -40},
	})
	if err != nil {
		t.Fatalf("Render() = %s", err)
	}
	if res.SourceMeta.MinDB != -100 || res.SourceMeta.MaxDB != -40 {
		t.Errorf("levels = %g - %g dBm, want -100 - -40", res.SourceMeta.MinDB, res.SourceMeta.MaxDB)
	}
	// -100 dBm sits at a quarter of the -120 to -40 dBm scale.
	if got, want := res.Image.At(0, 0), Color(math.MaxUint16/4); got != want {
		t.Errorf("pixel (0, 0) = %v, want %v", got, want)
	}
	if got, want := res.Image.At(2, 1), gradient[len(gradient)-1]; got != want {
		t.Errorf("pixel (2, 1) = %v, want %v", got, want)
	}
}

func TestResolution(t *testing.T) {
	db := openWaterfall(t)
	f := filterAll()
	f.EndFreq = 2402000000
	w, h, err := Resolution(context.Background(), db, f)
	if err != nil {
		t.Fatalf("Resolution() = %s", err)
	}
	if w != 2 || h != 3 {
		t.Errorf("Resolution() = %d x %d, want 2 x 3", w, h)
	}
}
