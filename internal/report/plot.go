package report

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/ironsheep/coloc-tools-mcp/internal/imaging"
	"github.com/ironsheep/coloc-tools-mcp/internal/pipeline"
)

// ErrNoPoints is returned by PlotMedians when no field has an enriched
// object.
var ErrNoPoints = errors.New("no enriched objects to plot")

// MedianPoints returns one point per enriched object: background median on
// X, object median on Y.
func MedianPoints(results []*pipeline.FieldResult) plotter.XYs {
	var pts plotter.XYs
	for _, r := range results {
		for _, s := range r.Enriched {
			pts = append(pts, plotter.XY{X: s.BackgroundMedian, Y: s.ObjectMedian})
		}
	}
	return pts
}

// PlotMedians draws object median against background median for every
// enriched object, one colour per field, with the identity line for
// reference, and saves it to path. The format follows the extension (.png,
// .svg, .pdf).
func PlotMedians(results []*pipeline.FieldResult, path string) error {
	p, err := MedianPlot(results)
	if err != nil {
		return err
	}
	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// MedianPlot builds the plot saved by PlotMedians.
func MedianPlot(results []*pipeline.FieldResult) (*plot.Plot, error) {
	all := MedianPoints(results)
	if len(all) == 0 {
		return nil, ErrNoPoints
	}

	p := plot.New()
	p.Title.Text = "Enriched objects"
	p.X.Label.Text = "Background median intensity"
	p.Y.Label.Text = "Object median intensity"
	p.Legend.Top = true
	p.Legend.Left = true

	hi := 0.0
	for _, pt := range all {
		hi = math.Max(hi, math.Max(pt.X, pt.Y))
	}
	if hi == 0 {
		hi = 1
	}

	identity, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: hi, Y: hi}})
	if err != nil {
		return nil, err
	}
	identity.Color = color.Gray{Y: 128}
	identity.Width = vg.Points(1)
	identity.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(identity)
	p.Legend.Add("object = background", identity)

	for i, r := range results {
		pts := MedianPoints([]*pipeline.FieldResult{r})
		if len(pts) == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		scatter.GlyphStyle.Color = imaging.LabelColor(i + 1)
		scatter.GlyphStyle.Radius = vg.Points(2.5)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
		p.Legend.Add(r.Name, scatter)
	}

	p.X.Min, p.Y.Min = 0, 0
	p.X.Max, p.Y.Max = hi*1.05, hi*1.05
	return p, nil
}
