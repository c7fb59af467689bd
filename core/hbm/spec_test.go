package hbm

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/marinelab/propfit/core/model"
)

func tinyData() model.FitData {
	return model.FitData{
		N: 1, K: 1,
		Counts: []int{1},
		Mass:   []float64{1.0},
		Power:  []float64{10},
		V3:     []float64{2},
		U2V:    []float64{1},
	}
}

func TestNewRejectsInvalidData(t *testing.T) {
	bad := tinyData()
	bad.Counts = []int{2}
	if _, err := New(bad); err == nil {
		t.Fatalf("expected rejection of inconsistent counts")
	}
}

func TestDimAndBlocks(t *testing.T) {
	fd := model.FitData{
		N: 3, K: 2,
		Counts: []int{2, 1},
		Mass:   []float64{1, 2},
		Power:  []float64{1, 2, 3},
		V3:     []float64{1, 2, 3},
		U2V:    []float64{1, 2, 3},
	}
	spec, err := New(fd)
	if err != nil {
		t.Fatalf("new spec: %v", err)
	}
	// a[2] + b[2] + sigma[2] + six population scalars.
	if got := spec.Dim(); got != 12 {
		t.Fatalf("expected dim 12, got %d", got)
	}
	if len(spec.Blocks) != numBlocks {
		t.Fatalf("expected %d blocks, got %d", numBlocks, len(spec.Blocks))
	}
}

func TestUnpackNaturalScale(t *testing.T) {
	spec, err := New(tinyData())
	if err != nil {
		t.Fatalf("new spec: %v", err)
	}
	theta := make([]float64, spec.Dim())
	theta[spec.Offset(blockSigma)] = math.Log(2.5)
	theta[spec.Offset(blockSigmaA)] = math.Log(0.5)
	p := spec.Unpack(theta)
	if math.Abs(p.Sigma[0]-2.5) > 1e-12 {
		t.Fatalf("sigma not mapped to natural scale: %g", p.Sigma[0])
	}
	if math.Abs(p.SigmaA-0.5) > 1e-12 {
		t.Fatalf("sigma_a not mapped to natural scale: %g", p.SigmaA)
	}
}

// Hand check: with unit scales and the trend means matching the coefficients
// exactly, the log posterior reduces to three standard-normal density
// maxima, i.e. -1.5*log(2*pi), plus zero Jacobian terms.
func TestLogProbHandComputed(t *testing.T) {
	spec, err := New(tinyData())
	if err != nil {
		t.Fatalf("new spec: %v", err)
	}
	theta := make([]float64, spec.Dim())
	theta[spec.Offset(blockA)] = 3      // a
	theta[spec.Offset(blockB)] = 4      // b: mu = 3*2 + 4*1 = 10 = power
	theta[spec.Offset(blockSigma)] = 0  // sigma = 1
	theta[spec.Offset(blockAlpha0)] = 1 // trend mean 1 + 2*1 = 3 = a
	theta[spec.Offset(blockAlpha1)] = 2
	theta[spec.Offset(blockBeta0)] = 1 // trend mean 1 + 3*1 = 4 = b
	theta[spec.Offset(blockBeta1)] = 3
	theta[spec.Offset(blockSigmaA)] = 0 // sigma_a = 1
	theta[spec.Offset(blockSigmaB)] = 0 // sigma_b = 1

	want := -1.5 * math.Log(2*math.Pi)
	got := spec.LogProb(theta)
	if math.Abs(got-want) > 1e-10 {
		t.Fatalf("log posterior %.12f, want %.12f", got, want)
	}
}

func TestLogProbJacobian(t *testing.T) {
	spec, err := New(tinyData())
	if err != nil {
		t.Fatalf("new spec: %v", err)
	}
	theta := make([]float64, spec.Dim())
	theta[spec.Offset(blockA)] = 3
	theta[spec.Offset(blockB)] = 4
	theta[spec.Offset(blockAlpha0)] = 1
	theta[spec.Offset(blockAlpha1)] = 2
	theta[spec.Offset(blockBeta0)] = 1
	theta[spec.Offset(blockBeta1)] = 3

	base := spec.LogProb(theta)
	// Doubling sigma_a multiplies its density term by 1/2 (the coefficient
	// still sits exactly on the trend) and adds log(2) Jacobian: net zero...
	// except the density at the mean scales as 1/sigma, so the two cancel.
	theta[spec.Offset(blockSigmaA)] = math.Log(2)
	got := spec.LogProb(theta)
	if math.Abs(got-base) > 1e-10 {
		t.Fatalf("expected Jacobian to cancel the density scaling at the mean: base %.12f, got %.12f", base, got)
	}
}

func TestInitIsFinite(t *testing.T) {
	spec, err := New(tinyData())
	if err != nil {
		t.Fatalf("new spec: %v", err)
	}
	rng := rand.New(rand.NewPCG(1, 2))
	theta := spec.Init(rng)
	if len(theta) != spec.Dim() {
		t.Fatalf("init length %d, want %d", len(theta), spec.Dim())
	}
	lp := spec.LogProb(theta)
	if math.IsNaN(lp) || math.IsInf(lp, 0) {
		t.Fatalf("log posterior not finite at init: %g", lp)
	}
}
