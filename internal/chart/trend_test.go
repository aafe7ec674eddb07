package chart

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breadthcli/internal/breadth"
)

func sampleWindow(days int) []breadth.Observation {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	var window []breadth.Observation
	for i := 0; i < days; i++ {
		date := base.AddDate(0, 0, i)
		window = append(window,
			breadth.Observation{Date: date, Item: breadth.ItemActivity, Value: 70 + float64(i)},
			breadth.Observation{Date: date, Item: breadth.ItemAdvancing, Value: 3000 + float64(i*10)},
			breadth.Observation{Date: date, Item: breadth.ItemLimitUp, Value: 40 + float64(i)},
		)
	}
	return window
}

func TestRenderTrends(t *testing.T) {
	out := filepath.Join(t.TempDir(), "market_breadth_trends_60days.png")
	r := NewRenderer(nil)

	require.NoError(t, r.RenderTrends(sampleWindow(10), 60, out))

	file, err := os.Open(out)
	require.NoError(t, err)
	defer file.Close()

	img, err := png.Decode(file)
	require.NoError(t, err)
	// Three stacked panels.
	assert.Equal(t, panelHeight*3, img.Bounds().Dy())
	assert.Equal(t, panelWidth, img.Bounds().Dx())
}

func TestRenderTrendsSkipsSparseSeries(t *testing.T) {
	out := filepath.Join(t.TempDir(), "trends.png")
	r := NewRenderer(nil)

	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	window := []breadth.Observation{
		// Activity has two points, the others only one: one panel drawn.
		{Date: date.AddDate(0, 0, -1), Item: breadth.ItemActivity, Value: 80},
		{Date: date, Item: breadth.ItemActivity, Value: 82},
		{Date: date, Item: breadth.ItemAdvancing, Value: 3500},
		{Date: date, Item: breadth.ItemLimitUp, Value: 80},
	}

	require.NoError(t, r.RenderTrends(window, 60, out))

	file, err := os.Open(out)
	require.NoError(t, err)
	defer file.Close()

	img, err := png.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, panelHeight, img.Bounds().Dy())
}

func TestRenderTrendsNoPlottableSeries(t *testing.T) {
	out := filepath.Join(t.TempDir(), "trends.png")
	r := NewRenderer(nil)

	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	window := []breadth.Observation{
		{Date: date, Item: breadth.ItemActivity, Value: math.NaN()},
		{Date: date, Item: "统计日期", Value: math.NaN()},
	}

	err := r.RenderTrends(window, 60, out)
	assert.Error(t, err)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no artifact on failure")
}

func TestSeriesByItem(t *testing.T) {
	d1 := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)

	window := []breadth.Observation{
		{Date: d2, Item: breadth.ItemActivity, Value: 82},
		{Date: d1, Item: breadth.ItemActivity, Value: 80},
		{Date: d1, Item: breadth.ItemAdvancing, Value: 3500},
		{Date: d2, Item: breadth.ItemActivity, Value: math.NaN()},
	}

	dates, values := seriesByItem(window, breadth.ItemActivity)
	require.Len(t, dates, 2, "missing values are dropped")
	assert.True(t, dates[0].Before(dates[1]), "series is date-sorted")
	assert.Equal(t, []float64{80, 82}, values)
}
