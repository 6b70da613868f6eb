package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/morphometry/internal/morph/l5measure"
)

func sampleTable() *l5measure.StatisticsTable {
	table := l5measure.NewStatisticsTable(4)
	table.Append(
		&l5measure.Measurement2D{Label: 1, MaxFeret: 0.05, AspectRatio: 0.8, SizeClassName: "Very Fine Mesopore"},
		&l5measure.Measurement2D{Label: 2, MaxFeret: 0.06, AspectRatio: 0.7, SizeClassName: "Very Fine Mesopore"},
		&l5measure.Measurement2D{Label: 3, MaxFeret: 2.0, AspectRatio: math.NaN(), SizeClassName: "Small Megapore"},
		&l5measure.Measurement2D{Label: 4, MaxFeret: 1.0, AspectRatio: 0.5, SizeClassName: "not a class"},
	)
	return table
}

func TestHistogramFromTable(t *testing.T) {
	classes := l5measure.PoreSizeClasses()
	h := HistogramFromTable(sampleTable(), classes)

	require.Len(t, h.Names, classes.Len())
	require.Len(t, h.Counts, classes.Len())
	assert.Equal(t, classes.Names(), h.Names)
	assert.Equal(t, 3, h.Total(), "unknown class names are dropped")

	byName := map[string]int{}
	for i, n := range h.Names {
		byName[n] = h.Counts[i]
	}
	assert.Equal(t, 0, byName["Micropore"])
	assert.Equal(t, 2, byName["Very Fine Mesopore"])
	assert.Equal(t, 1, byName["Small Megapore"])
}

func TestNewHistogram(t *testing.T) {
	_, err := NewHistogram([]string{"a", "b"}, []int{1})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	names := []string{"a", "b"}
	h, err := NewHistogram(names, []int{3, 4})
	require.NoError(t, err)
	names[0] = "changed"
	assert.Equal(t, "a", h.Names[0])
	assert.Equal(t, 7, h.Total())
}

func TestPointsFromTable_SkipsNonFinite(t *testing.T) {
	pts := PointsFromTable(sampleTable())
	require.Len(t, pts, 3)
	assert.Equal(t, uint32(1), pts[0].Label)
	assert.Equal(t, uint32(4), pts[2].Label)
}

func TestWriteImage_Formats(t *testing.T) {
	h := HistogramFromTable(sampleTable(), l5measure.PoreSizeClasses())

	var png bytes.Buffer
	require.NoError(t, h.WriteImage(&png, "Pore size classes", "png"))
	assert.True(t, bytes.HasPrefix(png.Bytes(), []byte("\x89PNG")))

	var svg bytes.Buffer
	require.NoError(t, h.WriteImage(&svg, "Pore size classes", "svg"))
	assert.Contains(t, svg.String(), "<svg")

	assert.Error(t, h.WriteImage(&bytes.Buffer{}, "x", "bmp"))
}

func TestWritePNG_EmptyHistogram(t *testing.T) {
	h := HistogramFromTable(l5measure.NewStatisticsTable(0), l5measure.GrainSizeClasses())
	var buf bytes.Buffer
	require.NoError(t, h.WritePNG(&buf, "empty"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestRenderHTML(t *testing.T) {
	table := sampleTable()
	h := HistogramFromTable(table, l5measure.PoreSizeClasses())

	var buf bytes.Buffer
	err := RenderHTML(&buf, h, PointsFromTable(table), HTMLOptions{
		Title:    "Run abc",
		Subtitle: "3 objects",
	})
	require.NoError(t, err)

	html := buf.String()
	assert.True(t, strings.Contains(html, "echarts"), "page should load echarts")
	assert.Contains(t, html, "Very Fine Mesopore")
	assert.Contains(t, html, "Max Feret vs aspect ratio")
}

func TestRenderHTML_NoPoints(t *testing.T) {
	h, err := NewHistogram([]string{"only"}, []int{0})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, h, nil, HTMLOptions{Title: "empty", AssetsHost: "/static/echarts/"}))
	assert.NotContains(t, buf.String(), "Max Feret vs aspect ratio")
	assert.Contains(t, buf.String(), "/static/echarts/")
}
