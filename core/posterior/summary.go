package posterior

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Band is a five-number posterior summary: the 2.5th, 25th, 50th, 75th and
// 97.5th percentiles of a draw collection.
type Band struct {
	Lo  float64 `json:"p2_5"`
	Q25 float64 `json:"p25"`
	Med float64 `json:"p50"`
	Q75 float64 `json:"p75"`
	Hi  float64 `json:"p97_5"`
}

// TrendBand is the population trend evaluated over a mass grid, summarized
// by the 2.5th, 50th and 97.5th percentiles at each grid point.
type TrendBand struct {
	Mass []float64 `json:"mass"`
	Lo   []float64 `json:"p2_5"`
	Med  []float64 `json:"p50"`
	Hi   []float64 `json:"p97_5"`
}

// VesselSummary carries the per-vessel posterior bands.
type VesselSummary struct {
	Index int     `json:"index"`
	Mass  float64 `json:"mass"`
	A     Band    `json:"a"`
	B     Band    `json:"b"`
	Sigma Band    `json:"sigma"`
}

// FitSummary aggregates everything reported after a fit.
type FitSummary struct {
	Vessels []VesselSummary `json:"vessels"`

	Alpha0 Band `json:"alpha0"`
	Alpha1 Band `json:"alpha1"`
	Beta0  Band `json:"beta0"`
	Beta1  Band `json:"beta1"`
	SigmaA Band `json:"sigma_a"`
	SigmaB Band `json:"sigma_b"`

	// ATrend and BTrend are the posterior bands of the population lines
	// alpha0+alpha1*m and beta0+beta1*m over a mass grid.
	ATrend TrendBand `json:"a_trend"`
	BTrend TrendBand `json:"b_trend"`
}

// Quantile returns the p-quantile of the draw collection. It copies and
// sorts, leaving the input untouched.
func Quantile(draws []float64, p float64) (float64, error) {
	if len(draws) == 0 {
		return 0, fmt.Errorf("no draws")
	}
	if p < 0 || p > 1 {
		return 0, fmt.Errorf("quantile %g outside [0,1]", p)
	}
	xs := append([]float64(nil), draws...)
	sort.Float64s(xs)
	return stat.Quantile(p, stat.Empirical, xs, nil), nil
}

// Summarize reduces posterior draws to percentile bands, with the
// population trends evaluated over gridSize mass points spanning the
// observed masses.
func Summarize(d *Draws, masses []float64, gridSize int) (*FitSummary, error) {
	if d == nil || d.Len() == 0 {
		return nil, fmt.Errorf("empty posterior draw collection")
	}
	if len(masses) != d.K {
		return nil, fmt.Errorf("got %d masses for %d vessels", len(masses), d.K)
	}
	if gridSize < 2 {
		gridSize = 50
	}

	s := &FitSummary{}
	for k := 0; k < d.K; k++ {
		vs := VesselSummary{Index: k + 1, Mass: masses[k]}
		var err error
		if vs.A, err = band(d.A[k]); err != nil {
			return nil, fmt.Errorf("vessel %d a: %w", k+1, err)
		}
		if vs.B, err = band(d.B[k]); err != nil {
			return nil, fmt.Errorf("vessel %d b: %w", k+1, err)
		}
		if vs.Sigma, err = band(d.Sigma[k]); err != nil {
			return nil, fmt.Errorf("vessel %d sigma: %w", k+1, err)
		}
		s.Vessels = append(s.Vessels, vs)
	}

	var err error
	if s.Alpha0, err = band(d.Alpha0); err != nil {
		return nil, err
	}
	if s.Alpha1, err = band(d.Alpha1); err != nil {
		return nil, err
	}
	if s.Beta0, err = band(d.Beta0); err != nil {
		return nil, err
	}
	if s.Beta1, err = band(d.Beta1); err != nil {
		return nil, err
	}
	if s.SigmaA, err = band(d.SigmaA); err != nil {
		return nil, err
	}
	if s.SigmaB, err = band(d.SigmaB); err != nil {
		return nil, err
	}

	grid := massGrid(masses, gridSize)
	if s.ATrend, err = trendBand(grid, d.Alpha0, d.Alpha1); err != nil {
		return nil, err
	}
	if s.BTrend, err = trendBand(grid, d.Beta0, d.Beta1); err != nil {
		return nil, err
	}
	return s, nil
}

func band(draws []float64) (Band, error) {
	var b Band
	var err error
	if b.Lo, err = Quantile(draws, 0.025); err != nil {
		return b, err
	}
	if b.Q25, err = Quantile(draws, 0.25); err != nil {
		return b, err
	}
	if b.Med, err = Quantile(draws, 0.50); err != nil {
		return b, err
	}
	if b.Q75, err = Quantile(draws, 0.75); err != nil {
		return b, err
	}
	b.Hi, err = Quantile(draws, 0.975)
	return b, err
}

// trendBand evaluates intercept+slope*m per draw at every grid point and
// summarizes the resulting distribution.
func trendBand(grid, intercept, slope []float64) (TrendBand, error) {
	tb := TrendBand{
		Mass: grid,
		Lo:   make([]float64, len(grid)),
		Med:  make([]float64, len(grid)),
		Hi:   make([]float64, len(grid)),
	}
	vals := make([]float64, len(intercept))
	for i, m := range grid {
		for j := range intercept {
			vals[j] = intercept[j] + slope[j]*m
		}
		var err error
		if tb.Lo[i], err = Quantile(vals, 0.025); err != nil {
			return tb, err
		}
		if tb.Med[i], err = Quantile(vals, 0.50); err != nil {
			return tb, err
		}
		if tb.Hi[i], err = Quantile(vals, 0.975); err != nil {
			return tb, err
		}
	}
	return tb, nil
}

func massGrid(masses []float64, size int) []float64 {
	min, max := math.Inf(1), math.Inf(-1)
	for _, m := range masses {
		min = math.Min(min, m)
		max = math.Max(max, m)
	}
	if min == max {
		// Single mass value: pad the grid so the band is still visible.
		min, max = min*0.9, max*1.1
	}
	grid := make([]float64, size)
	step := (max - min) / float64(size-1)
	for i := range grid {
		grid[i] = min + float64(i)*step
	}
	return grid
}
