// Package hbm declares the two-level Bayesian regression relating vessel
// propulsion power to speed and wind covariates. The model is expressed as a
// data structure (parameter blocks, constraints, likelihood form) plus the
// log-posterior it induces; drawing from that posterior is the sampler's
// business.
package hbm

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/marinelab/propfit/core/model"
)

// Constraint describes the support of a parameter block.
type Constraint int

const (
	// Unconstrained parameters live on the whole real line with a flat
	// default prior.
	Unconstrained Constraint = iota
	// Positive parameters are sampled on the log scale; the flat default
	// prior on (0, inf) contributes the log-scale Jacobian.
	Positive
)

// Block is one named group of parameters of the same role and constraint.
type Block struct {
	Name       string
	Size       int
	Constraint Constraint
}

// Spec is the declarative hierarchical model for one flattened dataset.
//
// Likelihood, per vessel k and observation j:
//
//	P_kj ~ Normal(a_k*V3_kj + b_k*U2V_kj, sigma_k)
//
// Hyper-model:
//
//	a_k ~ Normal(alpha0 + alpha1*mass_k, sigma_a)
//	b_k ~ Normal(beta0 + beta1*mass_k, sigma_b)
//
// Population-level scalars carry the engine's default priors: flat on the
// real line, flat on (0, inf) for scales.
type Spec struct {
	Data    model.FitData
	Blocks  []Block
	offsets []int // start of each vessel segment in the flattened arrays
}

// Parameter vector layout: the blocks are packed in declaration order into a
// flat vector theta of length Dim(). Positive blocks are stored as logs.
const (
	blockA = iota
	blockB
	blockSigma
	blockAlpha0
	blockAlpha1
	blockBeta0
	blockBeta1
	blockSigmaA
	blockSigmaB
	numBlocks
)

// New validates the flattened data and builds the model spec for it.
func New(data model.FitData) (*Spec, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("fit data: %w", err)
	}
	k := data.K
	return &Spec{
		Data: data,
		Blocks: []Block{
			{Name: "a", Size: k, Constraint: Unconstrained},
			{Name: "b", Size: k, Constraint: Unconstrained},
			{Name: "sigma", Size: k, Constraint: Positive},
			{Name: "alpha0", Size: 1, Constraint: Unconstrained},
			{Name: "alpha1", Size: 1, Constraint: Unconstrained},
			{Name: "beta0", Size: 1, Constraint: Unconstrained},
			{Name: "beta1", Size: 1, Constraint: Unconstrained},
			{Name: "sigma_a", Size: 1, Constraint: Positive},
			{Name: "sigma_b", Size: 1, Constraint: Positive},
		},
		offsets: data.Offsets(),
	}, nil
}

// Dim returns the length of the flat parameter vector.
func (s *Spec) Dim() int {
	d := 0
	for _, b := range s.Blocks {
		d += b.Size
	}
	return d
}

// Offset returns the index of the first element of the given block within
// the flat parameter vector.
func (s *Spec) Offset(block int) int {
	off := 0
	for i := 0; i < block; i++ {
		off += s.Blocks[i].Size
	}
	return off
}

// Params holds one parameter draw on the natural scale.
type Params struct {
	A, B, Sigma []float64
	Alpha0      float64
	Alpha1      float64
	Beta0       float64
	Beta1       float64
	SigmaA      float64
	SigmaB      float64
}

// Unpack maps a flat parameter vector to natural-scale values.
func (s *Spec) Unpack(theta []float64) Params {
	k := s.Data.K
	p := Params{
		A:     append([]float64(nil), theta[s.Offset(blockA):s.Offset(blockA)+k]...),
		B:     append([]float64(nil), theta[s.Offset(blockB):s.Offset(blockB)+k]...),
		Sigma: make([]float64, k),
	}
	for i, ls := range theta[s.Offset(blockSigma) : s.Offset(blockSigma)+k] {
		p.Sigma[i] = math.Exp(ls)
	}
	p.Alpha0 = theta[s.Offset(blockAlpha0)]
	p.Alpha1 = theta[s.Offset(blockAlpha1)]
	p.Beta0 = theta[s.Offset(blockBeta0)]
	p.Beta1 = theta[s.Offset(blockBeta1)]
	p.SigmaA = math.Exp(theta[s.Offset(blockSigmaA)])
	p.SigmaB = math.Exp(theta[s.Offset(blockSigmaB)])
	return p
}

// LogProb evaluates the unnormalized log posterior at theta, including the
// Jacobian terms for the log-scale parameters.
func (s *Spec) LogProb(theta []float64) float64 {
	p := s.Unpack(theta)
	d := s.Data

	lp := 0.0
	// Jacobians of the log transforms (flat priors on the natural scales).
	for _, ls := range theta[s.Offset(blockSigma) : s.Offset(blockSigma)+d.K] {
		lp += ls
	}
	lp += theta[s.Offset(blockSigmaA)]
	lp += theta[s.Offset(blockSigmaB)]

	// Hyper-model: per-vessel coefficients around the population trend.
	for k := 0; k < d.K; k++ {
		lp += normLogProb(p.A[k], p.Alpha0+p.Alpha1*d.Mass[k], p.SigmaA)
		lp += normLogProb(p.B[k], p.Beta0+p.Beta1*d.Mass[k], p.SigmaB)
	}

	// Likelihood over the flattened segments.
	for k := 0; k < d.K; k++ {
		lo, hi := s.offsets[k], s.offsets[k+1]
		for j := lo; j < hi; j++ {
			mu := p.A[k]*d.V3[j] + p.B[k]*d.U2V[j]
			lp += normLogProb(d.Power[j], mu, p.Sigma[k])
		}
	}
	return lp
}

func normLogProb(x, mu, sigma float64) float64 {
	if sigma <= 0 || math.IsInf(sigma, 1) || math.IsNaN(sigma) {
		return math.Inf(-1)
	}
	return distuv.Normal{Mu: mu, Sigma: sigma}.LogProb(x)
}

// Init produces a rough, data-scaled starting point with per-chain jitter.
// Per-vessel slopes start from a moment estimate against the cubic-speed
// covariate; the population trend starts from a least-squares line through
// those estimates.
func (s *Spec) Init(rng *rand.Rand) []float64 {
	d := s.Data
	theta := make([]float64, s.Dim())

	aInit := make([]float64, d.K)
	for k := 0; k < d.K; k++ {
		lo, hi := s.offsets[k], s.offsets[k+1]
		sumP, sumV3 := 0.0, 0.0
		for j := lo; j < hi; j++ {
			sumP += d.Power[j]
			sumV3 += d.V3[j]
		}
		a := 1.0
		if sumV3 != 0 {
			a = sumP / sumV3
		}
		aInit[k] = a
		theta[s.Offset(blockA)+k] = a + 0.1*rng.NormFloat64()
		theta[s.Offset(blockB)+k] = 0.1 * rng.NormFloat64()
		theta[s.Offset(blockSigma)+k] = math.Log(residualScale(d, s.offsets, k, a)) + 0.1*rng.NormFloat64()
	}

	alpha1, alpha0 := 0.0, stat.Mean(aInit, nil)
	if d.K > 1 {
		a0, a1 := stat.LinearRegression(d.Mass, aInit, nil, false)
		// Identical masses make the regression degenerate; keep the mean.
		if !math.IsNaN(a0) && !math.IsNaN(a1) {
			alpha0, alpha1 = a0, a1
		}
	}
	theta[s.Offset(blockAlpha0)] = alpha0 + 0.1*rng.NormFloat64()
	theta[s.Offset(blockAlpha1)] = alpha1 + 0.1*rng.NormFloat64()
	theta[s.Offset(blockBeta0)] = 0.1 * rng.NormFloat64()
	theta[s.Offset(blockBeta1)] = 0.1 * rng.NormFloat64()
	theta[s.Offset(blockSigmaA)] = 0.1 * rng.NormFloat64()
	theta[s.Offset(blockSigmaB)] = 0.1 * rng.NormFloat64()
	return theta
}

// residualScale is a crude spread estimate of the power residuals for one
// vessel under slope a and no wind term, floored away from zero.
func residualScale(d model.FitData, off []int, k int, a float64) float64 {
	lo, hi := off[k], off[k+1]
	ss := 0.0
	for j := lo; j < hi; j++ {
		r := d.Power[j] - a*d.V3[j]
		ss += r * r
	}
	scale := math.Sqrt(ss/float64(hi-lo)) + 1e-3
	return scale
}
