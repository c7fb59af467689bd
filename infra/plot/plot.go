// Package plot renders the posterior figures: per-vessel coefficient
// estimates with uncertainty bars against mass, overlaid with the shaded
// posterior band of the population trend.
package plot

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/marinelab/propfit/core/posterior"
)

// Coefficient selects which per-vessel coefficient a figure shows.
type Coefficient string

const (
	// CoefA is the cubic-speed resistance coefficient.
	CoefA Coefficient = "a"
	// CoefB is the wind-resistance coefficient.
	CoefB Coefficient = "b"
)

// SaveAll writes both coefficient figures into dir, creating it if needed.
// It returns the written file paths.
func SaveAll(sum *posterior.FitSummary, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("plot dir: %w", err)
	}
	var paths []string
	for _, coef := range []Coefficient{CoefA, CoefB} {
		path := filepath.Join(dir, fmt.Sprintf("coef_%s.png", coef))
		if err := SaveCoefficientFigure(sum, coef, path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// SaveCoefficientFigure renders one coefficient figure to path.
func SaveCoefficientFigure(sum *posterior.FitSummary, coef Coefficient, path string) error {
	if sum == nil || len(sum.Vessels) == 0 {
		return fmt.Errorf("empty fit summary, nothing to plot")
	}

	var trend posterior.TrendBand
	var title, yLabel string
	switch coef {
	case CoefA:
		trend = sum.ATrend
		title = "Cubic-speed resistance coefficient vs gross tonnage"
		yLabel = "a"
	case CoefB:
		trend = sum.BTrend
		title = "Wind-resistance coefficient vs gross tonnage"
		yLabel = "b"
	default:
		return fmt.Errorf("unknown coefficient %q", coef)
	}
	if len(trend.Mass) == 0 {
		return fmt.Errorf("degenerate trend band for coefficient %q", coef)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "gross tonnage (normalized)"
	p.Y.Label.Text = yLabel

	if err := addTrendBand(p, trend); err != nil {
		return err
	}
	if err := addVesselEstimates(p, sum.Vessels, coef); err != nil {
		return err
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save figure: %w", err)
	}
	return nil
}

// addTrendBand draws the shaded 95% band and the median line of the
// population trend.
func addTrendBand(p *plot.Plot, trend posterior.TrendBand) error {
	n := len(trend.Mass)
	band := make(plotter.XYs, 0, 2*n)
	for i := 0; i < n; i++ {
		band = append(band, plotter.XY{X: trend.Mass[i], Y: trend.Hi[i]})
	}
	for i := n - 1; i >= 0; i-- {
		band = append(band, plotter.XY{X: trend.Mass[i], Y: trend.Lo[i]})
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return fmt.Errorf("trend band: %w", err)
	}
	poly.Color = color.NRGBA{R: 70, G: 130, B: 180, A: 60}
	poly.LineStyle.Width = 0
	p.Add(poly)

	med := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		med[i] = plotter.XY{X: trend.Mass[i], Y: trend.Med[i]}
	}
	line, err := plotter.NewLine(med)
	if err != nil {
		return fmt.Errorf("trend median: %w", err)
	}
	line.Color = color.NRGBA{R: 70, G: 130, B: 180, A: 255}
	p.Add(line)
	p.Legend.Add("population trend (95%)", line)
	return nil
}

// vesselPoints adapts per-vessel bands to the plotter interfaces: medians as
// points, 2.5-97.5 percentile distances as asymmetric error bars.
type vesselPoints struct {
	plotter.XYs
	down, up []float64
}

func (v vesselPoints) YError(i int) (float64, float64) { return v.down[i], v.up[i] }

func addVesselEstimates(p *plot.Plot, vessels []posterior.VesselSummary, coef Coefficient) error {
	pts := vesselPoints{
		XYs:  make(plotter.XYs, len(vessels)),
		down: make([]float64, len(vessels)),
		up:   make([]float64, len(vessels)),
	}
	for i, vs := range vessels {
		b := vs.A
		if coef == CoefB {
			b = vs.B
		}
		pts.XYs[i] = plotter.XY{X: vs.Mass, Y: b.Med}
		pts.down[i] = b.Med - b.Lo
		pts.up[i] = b.Hi - b.Med
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("vessel points: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(2.5)
	bars, err := plotter.NewYErrorBars(pts)
	if err != nil {
		return fmt.Errorf("vessel error bars: %w", err)
	}
	p.Add(scatter, bars)
	p.Legend.Add("vessel posterior (median, 95%)", scatter)
	return nil
}
