package extraction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"github.com/golang/glog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// gradient runs from the weakest to the strongest level.
var gradient = []color.RGBA{
	{0x00, 0x00, 0x00, 0xff},
	{0x00, 0x00, 0xff, 0xff},
	{0x00, 0xff, 0xff, 0xff},
	{0x00, 0xff, 0x00, 0xff},
	{0xff, 0xff, 0x00, 0xff},
	{0xff, 0x00, 0x00, 0xff},
	{0xff, 0xff, 0xff, 0xff},
}

var (
	ink   = color.RGBA{0x00, 0x00, 0x00, 0xff}
	paper = color.RGBA{0xff, 0xff, 0xff, 0xff}

	freqUnits = []string{"Hz", "kHz", "MHz", "GHz", "THz"}
)

var ErrNoSamples = errors.New("no samples match the filter")

const (
	labelTimeFmt = "2006-01-02T15:04:05"

	marginTop  = 20
	marginLeft = 150
	tickLen    = 10
	minStepX   = 100
	minStepY   = 20

	// Bin centers are stable within a collection run, so the number of
	// distinct centers is the widest useful image.
	widthQueryTmpl = `SELECT COUNT(DISTINCT FreqCenter) FROM spectre WHERE %s;`

	// Each bin is timestamped on its own; the lowest bin stands in for the
	// number of sweeps.
	heightQueryTmpl = `SELECT COUNT(DISTINCT Start)
FROM spectre
WHERE %[1]s
	AND FreqCenter = (SELECT MIN(FreqCenter) FROM spectre WHERE %[1]s);`

	// pixelQueryTmpl reduces the selection to rows x cols NTILE buckets,
	// keeping the strongest level of each.
	pixelQueryTmpl = `SELECT
	MIN(FreqLow), MAX(FreqHigh), MAX(DBHigh), MIN(Start), MAX("End"), Row, Col
FROM (
	SELECT
		FreqLow, FreqHigh, DBHigh, Start, "End",
		NTILE(?) OVER (ORDER BY Start) AS Row,
		NTILE(?) OVER (ORDER BY FreqCenter) AS Col
	FROM spectre
	WHERE %s
)
GROUP BY Row, Col;`
)

// FilterOptions selects the samples to render.
type FilterOptions struct {
	// Source is the sdr.SDR name the samples were collected with.
	Source string
	// Identifier is matched with LIKE, "%" selects all collectors.
	Identifier string
	StartFreq  int64
	EndFreq    int64
	StartTime  time.Time
	EndTime    time.Time
}

// where returns the SQL condition and its arguments.
func (f *FilterOptions) where() (string, []any) {
	return `Source = ? AND Identifier LIKE ? AND FreqLow >= ? AND FreqHigh <= ? AND Start >= ? AND "End" <= ?`,
		[]any{f.Source, f.Identifier, f.StartFreq, f.EndFreq, f.StartTime.UnixMilli(), f.EndTime.UnixMilli()}
}

type ImageOptions struct {
	// Height and Width of the waterfall, 0 uses the full resolution of the
	// data. Larger values are reduced to it.
	Height int
	Width  int

	// MinDB and MaxDB fix the level scale in dBm. When MaxDB is not above
	// MinDB the scale spans the levels found in the selection.
	MinDB float32
	MaxDB float32

	AddGrid bool
}

type RenderRequest struct {
	Filter *FilterOptions
	Image  *ImageOptions
}

type SourceMetadata struct {
	LowFreq   int64
	HighFreq  int64
	StartTime time.Time
	EndTime   time.Time
	MinDB     float32
	MaxDB     float32
}

type RenderMetadata struct {
	ImageHeight  int
	ImageWidth   int
	FreqPerPixel float64
	SecPerPixel  float64
}

type RenderResult struct {
	Image image.Image

	SourceMeta *SourceMetadata
	ImageMeta  *RenderMetadata
}

// Resolution returns the largest image the selection can fill: one column per
// frequency bin and one row per sweep.
func Resolution(ctx context.Context, db *sql.DB, f *FilterOptions) (width, height int, err error) {
	cond, args := f.where()
	if err := db.QueryRowContext(ctx, fmt.Sprintf(widthQueryTmpl, cond), args...).Scan(&width); err != nil {
		return 0, 0, fmt.Errorf("unable to query image width: %w", err)
	}
	if err := db.QueryRowContext(ctx, fmt.Sprintf(heightQueryTmpl, cond), append(args, args...)...).Scan(&height); err != nil {
		return 0, 0, fmt.Errorf("unable to query image height: %w", err)
	}
	return width, height, nil
}

// fit returns want capped to limit; 0 selects limit.
func fit(name string, want, limit int) int {
	switch {
	case want == 0:
		return limit
	case want > limit:
		glog.Warningf("image %s %d exceeds the %d pixels the selected samples provide, reducing it", name, want, limit)
		return limit
	}
	return want
}

// Color maps a level on the gradient, interpolating linearly between its
// stops.
func Color(lvl uint16) color.RGBA {
	pos := float64(lvl) / math.MaxUint16 * float64(len(gradient)-1)
	i := int(pos)
	if i >= len(gradient)-1 {
		return gradient[len(gradient)-1]
	}
	frac := pos - float64(i)
	lo, hi := gradient[i], gradient[i+1]
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*frac))
	}
	return color.RGBA{mix(lo.R, hi.R), mix(lo.G, hi.G), mix(lo.B, hi.B), mix(lo.A, hi.A)}
}

// ReadableFreq formats freq with two decimals in the largest fitting unit.
func ReadableFreq(freq int64) string {
	f := float64(freq)
	unit := 0
	for f > 1000 && unit < len(freqUnits)-1 {
		f /= 1000
		unit++
	}
	return fmt.Sprintf("%.2f %s", f, freqUnits[unit])
}

// gridStep halves size while the result stays at least least pixels.
func gridStep(size, least int) int {
	for size/2 >= least {
		size /= 2
	}
	return size
}

func label(canvas *image.RGBA, x, y int, s string) {
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(ink),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// AddGrid returns waterfall framed by frequency ticks on top and time ticks
// on the left, labelled from meta.
func AddGrid(waterfall *image.RGBA, meta *SourceMetadata) *image.RGBA {
	b := waterfall.Bounds()
	canvas := image.NewRGBA(image.Rect(b.Min.X, b.Min.Y, b.Max.X-1+marginLeft, b.Max.Y-1+marginTop))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(paper), image.Point{}, draw.Src)
	origin := canvas.Bounds().Min.Add(image.Pt(marginLeft, marginTop))
	draw.Draw(canvas, image.Rectangle{Min: origin, Max: canvas.Bounds().Max}, waterfall, b.Min, draw.Src)

	span := meta.HighFreq - meta.LowFreq
	for x := 0; x < b.Dx(); x += gridStep(b.Dx(), minStepX) {
		for i := 0; i <= tickLen; i++ {
			canvas.SetRGBA(origin.X+x, origin.Y-tickLen+i, ink)
		}
		label(canvas, origin.X+x+5, origin.Y-2, ReadableFreq(meta.LowFreq+int64(x)*span/int64(b.Dx())))
	}

	duration := meta.EndTime.Sub(meta.StartTime).Milliseconds()
	for y := 0; y < b.Dy(); y += gridStep(b.Dy(), minStepY) {
		for i := 0; i <= tickLen; i++ {
			canvas.SetRGBA(origin.X-tickLen+i, origin.Y+y, ink)
		}
		offset := time.Duration(int64(y)*duration/int64(b.Dy())) * time.Millisecond
		label(canvas, canvas.Bounds().Min.X+5, origin.Y+y+5, offset.String())
		label(canvas, canvas.Bounds().Min.X+5, origin.Y+y+17, meta.StartTime.Add(offset).Format(labelTimeFmt))
	}
	return canvas
}

// Render draws the selected samples as a waterfall: frequency grows to the
// right and time downwards.
func Render(ctx context.Context, db *sql.DB, req *RenderRequest) (*RenderResult, error) {
	maxWidth, maxHeight, err := Resolution(ctx, db, req.Filter)
	if err != nil {
		return nil, err
	}
	width := fit("width", req.Image.Width, maxWidth)
	height := fit("height", req.Image.Height, maxHeight)
	if width <= 0 || height <= 0 {
		return nil, ErrNoSamples
	}

	cond, args := req.Filter.where()
	rows, err := db.QueryContext(ctx, fmt.Sprintf(pixelQueryTmpl, cond), append([]any{height, width}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("unable to query samples: %w", err)
	}
	defer rows.Close()

	meta := &SourceMetadata{
		LowFreq: math.MaxInt64,
		MinDB:   float32(math.Inf(1)),
		MaxDB:   float32(math.Inf(-1)),
	}
	levels := make([][]float32, height)
	for y := range levels {
		levels[y] = make([]float32, width)
		for x := range levels[y] {
			levels[y][x] = float32(math.NaN())
		}
	}
	for rows.Next() {
		var (
			low, high, start, end int64
			level                 float32
			row, col              int
		)
		if err := rows.Scan(&low, &high, &level, &start, &end, &row, &col); err != nil {
			glog.Warningf("unable to read pixel from DB: %s", err)
			continue
		}
		meta.LowFreq = min(meta.LowFreq, low)
		meta.HighFreq = max(meta.HighFreq, high)
		if st := time.UnixMilli(start); meta.StartTime.IsZero() || st.Before(meta.StartTime) {
			meta.StartTime = st
		}
		if et := time.UnixMilli(end); et.After(meta.EndTime) {
			meta.EndTime = et
		}
		meta.MinDB = min(meta.MinDB, level)
		meta.MaxDB = max(meta.MaxDB, level)
		// NTILE counts from 1.
		levels[row-1][col-1] = level
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to read samples: %w", err)
	}

	floor, ceil := meta.MinDB, meta.MaxDB
	if req.Image.MaxDB > req.Image.MinDB {
		floor, ceil = req.Image.MinDB, req.Image.MaxDB
	}
	scale := ceil - floor
	if scale <= 0 {
		scale = 1
	}
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	for y, row := range levels {
		for x, level := range row {
			if math.IsNaN(float64(level)) {
				continue
			}
			lvl := min(max((level-floor)/scale, 0), 1) * math.MaxUint16
			canvas.SetRGBA(x, y, Color(uint16(lvl)))
		}
	}
	if req.Image.AddGrid {
		canvas = AddGrid(canvas, meta)
	}

	return &RenderResult{
		Image:      canvas,
		SourceMeta: meta,
		ImageMeta: &RenderMetadata{
			ImageHeight:  height,
			ImageWidth:   width,
			FreqPerPixel: float64(meta.HighFreq-meta.LowFreq) / float64(width),
			SecPerPixel:  meta.EndTime.Sub(meta.StartTime).Seconds() / float64(height),
		},
	}, nil
}
