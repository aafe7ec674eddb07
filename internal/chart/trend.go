// Package chart renders trend images from the windowed, normalized
// series. It is a sink: cleaned rows in, one PNG artifact out.
package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"breadthcli/internal/breadth"
)

const (
	panelWidth  = 1200
	panelHeight = 400
)

// panels mirrors the original report layout: activity, advancing
// count, and genuine limit-up count, one line panel each.
var panels = []struct {
	item  string
	title string
	color string
}{
	{breadth.ItemActivity, "Market activity (%%), last %d days", "FF6B6B"},
	{breadth.ItemAdvancing, "Advancing instruments, last %d days", "4ECDC4"},
	{breadth.ItemLimitUp, "Genuine limit-up count, last %d days", "45B7D1"},
}

// Renderer draws the trend image for a window of observations.
type Renderer struct {
	logger *slog.Logger
}

// NewRenderer creates a trend renderer.
func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger}
}

// RenderTrends renders the tracked indicators as stacked line panels
// and writes a single PNG to outputPath. Panels whose series has too
// few points are skipped with a warning; rendering fails only when no
// panel is drawable.
func (r *Renderer) RenderTrends(window []breadth.Observation, windowDays int, outputPath string) error {
	var images []image.Image
	for _, p := range panels {
		dates, values := seriesByItem(window, p.item)
		if len(dates) < 2 {
			r.logger.Warn("skipping trend panel, not enough points",
				slog.String("item", p.item),
				slog.Int("points", len(dates)))
			continue
		}

		img, err := renderPanel(fmt.Sprintf(p.title, windowDays), p.color, dates, values)
		if err != nil {
			return fmt.Errorf("render panel %s: %w", p.item, err)
		}
		images = append(images, img)
	}

	if len(images) == 0 {
		return fmt.Errorf("no plottable series in window")
	}

	combined := stackVertically(images)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create chart directory: %w", err)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, combined); err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}

	r.logger.Info("trend chart written",
		slog.String("path", outputPath),
		slog.Int("panels", len(images)))
	return nil
}

// seriesByItem extracts the date-sorted series for one item, dropping
// missing values.
func seriesByItem(window []breadth.Observation, item string) ([]time.Time, []float64) {
	type point struct {
		date  time.Time
		value float64
	}
	var points []point
	for _, o := range window {
		if o.Item != item || o.Missing() {
			continue
		}
		points = append(points, point{date: o.Date, value: o.Value})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].date.Before(points[j].date)
	})

	dates := make([]time.Time, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		dates[i] = p.date
		values[i] = p.value
	}
	return dates, values
}

func renderPanel(title, colorHex string, dates []time.Time, values []float64) (image.Image, error) {
	c := gochart.Chart{
		Title:  title,
		Width:  panelWidth,
		Height: panelHeight,
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeDateValueFormatter,
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				XValues: dates,
				YValues: values,
				Style: gochart.Style{
					StrokeColor: drawing.ColorFromHex(colorHex),
					StrokeWidth: 2.0,
					DotColor:    drawing.ColorFromHex(colorHex),
					DotWidth:    3.0,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := c.Render(gochart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

// stackVertically composites the rendered panels into one tall image.
func stackVertically(images []image.Image) image.Image {
	width, height := 0, 0
	for _, img := range images {
		b := img.Bounds()
		if b.Dx() > width {
			width = b.Dx()
		}
		height += b.Dy()
	}

	combined := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(combined, combined.Bounds(), image.White, image.Point{}, draw.Src)

	y := 0
	for _, img := range images {
		b := img.Bounds()
		draw.Draw(combined, image.Rect(0, y, b.Dx(), y+b.Dy()), img, b.Min, draw.Src)
		y += b.Dy()
	}
	return combined
}
