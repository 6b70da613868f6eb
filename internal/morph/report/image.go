package report

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	imageWidth  = 10 * vg.Inch
	imageHeight = 5 * vg.Inch
)

func (h *Histogram) plot(title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Size class"
	p.Y.Label.Text = "Objects"

	values := make(plotter.Values, len(h.Counts))
	for i, c := range h.Counts {
		values[i] = float64(c)
	}
	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(h.Names...)
	p.X.Tick.Label.Rotation = 0.6
	p.X.Tick.Label.XAlign = -1
	p.Y.Min = 0
	return p, nil
}

// WriteImage renders the histogram to w in format, any format gonum/plot
// supports (png, svg, pdf, eps, jpg, tiff).
func (h *Histogram) WriteImage(w io.Writer, title, format string) error {
	p, err := h.plot(title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(imageWidth, imageHeight, format)
	if err != nil {
		return fmt.Errorf("%s writer: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return nil
}

// WritePNG renders the histogram as PNG to w.
func (h *Histogram) WritePNG(w io.Writer, title string) error {
	return h.WriteImage(w, title, "png")
}
