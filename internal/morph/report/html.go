package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// HTMLOptions controls the interactive page.
type HTMLOptions struct {
	Title    string
	Subtitle string
	// AssetsHost overrides where echarts.min.js is loaded from. Empty uses
	// the go-echarts default CDN.
	AssetsHost string
}

func (o HTMLOptions) initialization() opts.Initialization {
	initOpts := opts.Initialization{PageTitle: o.Title, Width: "100%", Height: "480px"}
	if o.AssetsHost != "" {
		initOpts.AssetsHost = o.AssetsHost
	}
	return initOpts
}

// HistogramChart returns the size-class bar chart.
func (h *Histogram) HistogramChart(o HTMLOptions) *charts.Bar {
	data := make([]opts.BarData, len(h.Counts))
	for i, c := range h.Counts {
		data[i] = opts.BarData{Value: c}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(o.initialization()),
		charts.WithTitleOpts(opts.Title{Title: o.Title, Subtitle: o.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Size class", AxisLabel: &opts.AxisLabel{Rotate: 30}}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Objects"}),
	)
	bar.SetXAxis(h.Names).
		AddSeries("objects", data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// ScatterChart returns the max Feret versus aspect ratio scatter.
func ScatterChart(points []Point, o HTMLOptions) *charts.Scatter {
	data := make([]opts.ScatterData, len(points))
	for i, p := range points {
		data[i] = opts.ScatterData{Value: []interface{}{p.Feret, p.Aspect, p.Label}}
	}
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(o.initialization()),
		charts.WithTitleOpts(opts.Title{Title: "Max Feret vs aspect ratio"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Max Feret (mm)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Aspect", Min: 0, Max: 1}),
	)
	scatter.AddSeries("objects", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	return scatter
}

// RenderHTML writes a page with the histogram and, when points is not
// empty, the Feret/aspect scatter.
func RenderHTML(w io.Writer, h *Histogram, points []Point, o HTMLOptions) error {
	page := components.NewPage()
	if o.AssetsHost != "" {
		page.SetAssetsHost(o.AssetsHost)
	}
	page.AddCharts(h.HistogramChart(o))
	if len(points) > 0 {
		page.AddCharts(ScatterChart(points, o))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report page: %w", err)
	}
	return nil
}
