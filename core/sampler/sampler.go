// Package sampler implements the inference engine: an adaptive
// per-coordinate random-walk Metropolis sampler running several independent
// chains in parallel. The target distribution is supplied as a log-density;
// the package knows nothing about the model it samples.
package sampler

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// Target is the unnormalized log density to sample from.
type Target interface {
	// Dim returns the parameter vector length.
	Dim() int
	// LogProb evaluates the unnormalized log density.
	LogProb(theta []float64) float64
	// Init draws a starting point for one chain.
	Init(rng *rand.Rand) []float64
}

// Config controls the sampling run.
type Config struct {
	Chains       int     `json:"chains"`
	Iterations   int     `json:"iterations"`
	Warmup       int     `json:"warmup"`
	Seed         int64   `json:"seed"`
	TargetAccept float64 `json:"target_accept"`
}

// SetDefaults applies fallback values for optional fields.
func (c *Config) SetDefaults() {
	if c.Chains <= 0 {
		c.Chains = 4
	}
	if c.Iterations <= 0 {
		c.Iterations = 2000
	}
	if c.Warmup <= 0 {
		c.Warmup = c.Iterations / 2
	}
	if c.TargetAccept <= 0 || c.TargetAccept >= 1 {
		c.TargetAccept = 0.44
	}
}

// Validate checks the run parameters.
func (c Config) Validate() error {
	if c.Warmup >= c.Iterations {
		return fmt.Errorf("warmup (%d) must be smaller than iterations (%d)", c.Warmup, c.Iterations)
	}
	return nil
}

// Result holds the retained draws of every chain plus run diagnostics.
type Result struct {
	// Chains[c][i] is the i-th retained draw of chain c.
	Chains [][][]float64
	// AcceptRate is the post-warmup acceptance rate per chain.
	AcceptRate []float64
	// Rhat is the split-Rhat convergence statistic per parameter.
	Rhat []float64
	// Duration is the wall-clock sampling time.
	Duration time.Duration
}

// Draws flattens the retained draws of all chains into one collection.
func (r *Result) Draws() [][]float64 {
	var out [][]float64
	for _, ch := range r.Chains {
		out = append(out, ch...)
	}
	return out
}

// MaxRhat returns the largest split-Rhat across parameters, or NaN when no
// diagnostic is available.
func (r *Result) MaxRhat() float64 {
	if len(r.Rhat) == 0 {
		return math.NaN()
	}
	max := r.Rhat[0]
	for _, v := range r.Rhat[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Sample runs cfg.Chains independent chains against the target and collects
// the post-warmup draws. Each chain owns a seeded RNG derived from cfg.Seed,
// so runs are reproducible. Context cancellation aborts the whole run.
func Sample(ctx context.Context, target Target, cfg Config) (*Result, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if target.Dim() <= 0 {
		return nil, fmt.Errorf("target has no parameters")
	}

	start := time.Now()
	res := &Result{
		Chains:     make([][][]float64, cfg.Chains),
		AcceptRate: make([]float64, cfg.Chains),
	}
	errs := make([]error, cfg.Chains)

	var wg sync.WaitGroup
	for c := 0; c < cfg.Chains; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(c)+1))
			draws, accept, err := runChain(ctx, target, cfg, rng)
			res.Chains[c] = draws
			res.AcceptRate[c] = accept
			errs[c] = err
		}(c)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	res.Rhat = splitRhat(res.Chains, target.Dim())
	res.Duration = time.Since(start)
	return res, nil
}

// runChain executes one chain: warmup sweeps adapt the per-coordinate
// proposal scales toward the target acceptance rate, then the retained
// iterations are recorded.
func runChain(ctx context.Context, target Target, cfg Config, rng *rand.Rand) ([][]float64, float64, error) {
	dim := target.Dim()
	theta := target.Init(rng)
	if len(theta) != dim {
		return nil, 0, fmt.Errorf("init returned %d parameters, expected %d", len(theta), dim)
	}
	lp := target.LogProb(theta)
	if math.IsNaN(lp) {
		return nil, 0, fmt.Errorf("log density is NaN at the initial point")
	}

	scales := make([]float64, dim)
	for i := range scales {
		scales[i] = 0.5
	}

	retained := make([][]float64, 0, cfg.Iterations-cfg.Warmup)
	accepted, proposed := 0, 0
	prop := make([]float64, dim)

	for iter := 0; iter < cfg.Iterations; iter++ {
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		default:
		}
		warm := iter < cfg.Warmup
		for i := 0; i < dim; i++ {
			copy(prop, theta)
			prop[i] = theta[i] + scales[i]*rng.NormFloat64()
			lpProp := target.LogProb(prop)
			acc := lpProp-lp > math.Log(rng.Float64())
			if acc {
				theta[i] = prop[i]
				lp = lpProp
			}
			if warm {
				adapt(&scales[i], acc, iter, cfg.TargetAccept)
			} else {
				proposed++
				if acc {
					accepted++
				}
			}
		}
		if !warm {
			retained = append(retained, append([]float64(nil), theta...))
		}
	}

	rate := 0.0
	if proposed > 0 {
		rate = float64(accepted) / float64(proposed)
	}
	return retained, rate, nil
}

// adapt nudges a proposal scale with a Robbins-Monro step so the acceptance
// rate settles near the target.
func adapt(scale *float64, accepted bool, iter int, target float64) {
	eta := math.Min(0.1, 1/math.Sqrt(float64(iter+1)))
	a := 0.0
	if accepted {
		a = 1.0
	}
	*scale *= math.Exp(eta * (a - target))
	if *scale < 1e-8 {
		*scale = 1e-8
	}
}
