package posterior

import (
	"math"
	"testing"

	"github.com/marinelab/propfit/core/hbm"
	"github.com/marinelab/propfit/core/model"
)

func uniformDraws() []float64 {
	// 0, 1, ..., 100: known analytic percentiles.
	xs := make([]float64, 101)
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs
}

func TestQuantileAnalytic(t *testing.T) {
	xs := uniformDraws()
	cases := []struct {
		p    float64
		want float64
	}{
		{0.5, 50},
		{0.25, 25},
		{0.75, 75},
	}
	for _, c := range cases {
		got, err := Quantile(xs, c.p)
		if err != nil {
			t.Fatalf("quantile %g: %v", c.p, err)
		}
		if math.Abs(got-c.want) > 1 {
			t.Fatalf("quantile %g: got %g, want %g", c.p, got, c.want)
		}
	}
	if _, err := Quantile(nil, 0.5); err == nil {
		t.Fatalf("expected error for empty draw collection")
	}
	if _, err := Quantile(xs, 1.5); err == nil {
		t.Fatalf("expected error for quantile outside [0,1]")
	}
}

func TestQuantileLeavesInputUnsorted(t *testing.T) {
	xs := []float64{3, 1, 2}
	if _, err := Quantile(xs, 0.5); err != nil {
		t.Fatalf("quantile: %v", err)
	}
	if xs[0] != 3 || xs[1] != 1 || xs[2] != 2 {
		t.Fatalf("input mutated: %v", xs)
	}
}

func synthDraws(k, n int) *Draws {
	d := &Draws{
		K:     k,
		A:     make([][]float64, k),
		B:     make([][]float64, k),
		Sigma: make([][]float64, k),
	}
	for i := 0; i < n; i++ {
		x := float64(i)
		for v := 0; v < k; v++ {
			d.A[v] = append(d.A[v], x)
			d.B[v] = append(d.B[v], -x)
			d.Sigma[v] = append(d.Sigma[v], 1)
		}
		d.Alpha0 = append(d.Alpha0, 10)
		d.Alpha1 = append(d.Alpha1, 2)
		d.Beta0 = append(d.Beta0, 1)
		d.Beta1 = append(d.Beta1, 0)
		d.SigmaA = append(d.SigmaA, 1)
		d.SigmaB = append(d.SigmaB, 1)
	}
	return d
}

func TestSummarizeBands(t *testing.T) {
	d := synthDraws(2, 101)
	sum, err := Summarize(d, []float64{1, 3}, 10)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if len(sum.Vessels) != 2 {
		t.Fatalf("expected 2 vessel summaries, got %d", len(sum.Vessels))
	}
	a := sum.Vessels[0].A
	if math.Abs(a.Med-50) > 1 {
		t.Fatalf("median of 0..100 draws should be about 50, got %g", a.Med)
	}
	if !(a.Lo <= a.Q25 && a.Q25 <= a.Med && a.Med <= a.Q75 && a.Q75 <= a.Hi) {
		t.Fatalf("band percentiles out of order: %+v", a)
	}

	// Degenerate population draws: trend is the line 10+2m at every quantile.
	tb := sum.ATrend
	if len(tb.Mass) != 10 {
		t.Fatalf("expected 10 grid points, got %d", len(tb.Mass))
	}
	if tb.Mass[0] != 1 || tb.Mass[len(tb.Mass)-1] != 3 {
		t.Fatalf("grid should span the observed masses, got [%g, %g]", tb.Mass[0], tb.Mass[len(tb.Mass)-1])
	}
	for i, m := range tb.Mass {
		want := 10 + 2*m
		if math.Abs(tb.Med[i]-want) > 1e-9 || math.Abs(tb.Lo[i]-want) > 1e-9 || math.Abs(tb.Hi[i]-want) > 1e-9 {
			t.Fatalf("grid point %d: trend band %g/%g/%g, want %g", i, tb.Lo[i], tb.Med[i], tb.Hi[i], want)
		}
	}
}

func TestSummarizeRejectsEmpty(t *testing.T) {
	if _, err := Summarize(nil, nil, 10); err == nil {
		t.Fatalf("expected error for nil draws")
	}
	if _, err := Summarize(&Draws{K: 1}, []float64{1}, 10); err == nil {
		t.Fatalf("expected error for empty draw collection")
	}
	if _, err := Summarize(synthDraws(2, 10), []float64{1}, 10); err == nil {
		t.Fatalf("expected error for mass/vessel count mismatch")
	}
}

func TestFromSamples(t *testing.T) {
	fd := model.FitData{
		N: 1, K: 1,
		Counts: []int{1},
		Mass:   []float64{1},
		Power:  []float64{10},
		V3:     []float64{2},
		U2V:    []float64{1},
	}
	spec, err := hbm.New(fd)
	if err != nil {
		t.Fatalf("new spec: %v", err)
	}
	theta := make([]float64, spec.Dim())
	for i := range theta {
		theta[i] = 0.5
	}
	d, err := FromSamples(spec, [][]float64{theta, theta})
	if err != nil {
		t.Fatalf("from samples: %v", err)
	}
	if d.Len() != 2 || d.K != 1 {
		t.Fatalf("unexpected draws shape: len=%d k=%d", d.Len(), d.K)
	}
	if math.Abs(d.Sigma[0][0]-math.Exp(0.5)) > 1e-12 {
		t.Fatalf("sigma draw not on natural scale: %g", d.Sigma[0][0])
	}

	if _, err := FromSamples(spec, nil); err == nil {
		t.Fatalf("expected error for empty sample collection")
	}
	if _, err := FromSamples(spec, [][]float64{{1, 2}}); err == nil {
		t.Fatalf("expected error for wrong draw length")
	}
}
