// Package generate produces synthetic propulsion observations consistent
// with the hierarchical generative process fitted by the sampler.
package generate

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/marinelab/propfit/core/logger"
	"github.com/marinelab/propfit/core/model"
)

// CovariateRanges bounds the input distributions for speed and wind. The
// propulsion formula only fixes how covariates combine; the ranges they are
// drawn from are configuration.
type CovariateRanges struct {
	SpeedMinKts float64 `json:"speed_min_kts"`
	SpeedMaxKts float64 `json:"speed_max_kts"`
	WindMaxMps  float64 `json:"wind_max_mps"`
}

// SetDefaults applies fallback values for optional fields.
func (c *CovariateRanges) SetDefaults() {
	if c.SpeedMinKts == 0 {
		c.SpeedMinKts = 5
	}
	if c.SpeedMaxKts == 0 {
		c.SpeedMaxKts = 15
	}
	if c.WindMaxMps == 0 {
		c.WindMaxMps = 12
	}
}

// Validate checks the configured ranges.
func (c CovariateRanges) Validate() error {
	if c.SpeedMinKts <= 0 {
		return fmt.Errorf("speed_min_kts must be positive, got %g", c.SpeedMinKts)
	}
	if c.SpeedMinKts > c.SpeedMaxKts {
		return fmt.Errorf("speed_min_kts > speed_max_kts")
	}
	if c.WindMaxMps < 0 {
		return fmt.Errorf("wind_max_mps must be non-negative, got %g", c.WindMaxMps)
	}
	return nil
}

// Generator draws synthetic fleets from known ground-truth hyperparameters.
// All randomness flows from the seed given at construction, so identical
// inputs yield identical datasets.
type Generator struct {
	truth model.TruthParams
	cov   CovariateRanges
	src   rand.Source
	rng   *rand.Rand
	log   logger.Logger
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

// New creates a seeded Generator. Negative noise scales are rejected here so
// that every later draw is well defined.
func New(truth model.TruthParams, cov CovariateRanges, seed int64, log logger.Logger) (*Generator, error) {
	if err := truth.Validate(); err != nil {
		return nil, fmt.Errorf("truth params: %w", err)
	}
	cov.SetDefaults()
	if err := cov.Validate(); err != nil {
		return nil, fmt.Errorf("covariate ranges: %w", err)
	}
	if log == nil {
		log = nopLogger{}
	}
	src := rand.NewPCG(uint64(seed), uint64(seed)+1)
	return &Generator{
		truth: truth,
		cov:   cov,
		src:   src,
		rng:   rand.New(src),
		log:   log,
	}, nil
}

// Dataset generates one ragged dataset: for vessel k it draws latent
// coefficients from the population trend, then counts[k] observations of
// power against the speed and wind covariates.
func (g *Generator) Dataset(masses []float64, counts []int) (*model.Dataset, error) {
	if len(masses) == 0 {
		return nil, fmt.Errorf("at least one vessel required")
	}
	if len(masses) != len(counts) {
		return nil, fmt.Errorf("got %d masses but %d observation counts", len(masses), len(counts))
	}
	for k, c := range counts {
		if c <= 0 {
			return nil, fmt.Errorf("vessel %d: observation count must be positive, got %d", k+1, c)
		}
	}
	ds := &model.Dataset{Vessels: make([]model.VesselSeries, len(masses))}
	for k, m := range masses {
		if m <= 0 {
			return nil, fmt.Errorf("vessel %d: mass must be positive, got %g", k+1, m)
		}
		v := model.Vessel{
			Index:  k + 1,
			MassGT: m,
			A:      g.normal(g.truth.Alpha0+g.truth.Alpha1*m, g.truth.SigmaA),
			B:      g.normal(g.truth.Beta0+g.truth.Beta1*m, g.truth.SigmaB),
		}
		series := model.VesselSeries{
			Vessel: v,
			Power:  make([]float64, counts[k]),
			V3:     make([]float64, counts[k]),
			U2V:    make([]float64, counts[k]),
		}
		for j := 0; j < counts[k]; j++ {
			v3, u2v := g.covariates()
			series.V3[j] = v3
			series.U2V[j] = u2v
			series.Power[j] = g.normal(v.A*v3+v.B*u2v, g.truth.SigmaObs)
		}
		ds.Vessels[k] = series
		g.log.Debugw("vessel generated", map[string]any{
			"index": v.Index, "mass": v.MassGT, "a": v.A, "b": v.B, "obs": counts[k],
		})
	}
	g.log.Infof("generated %d vessels", len(masses))
	return ds, nil
}

// covariates draws one observation's inputs: speed V in knots, relative wind
// speed U in m/s and relative wind angle psi, combined into the two
// regression covariates V^3 and U^2*cos(psi)*V.
func (g *Generator) covariates() (v3, u2v float64) {
	v := g.uniform(g.cov.SpeedMinKts, g.cov.SpeedMaxKts)
	u := g.uniform(0, g.cov.WindMaxMps)
	psi := g.uniform(0, 2*math.Pi)
	return v * v * v, u * u * math.Cos(psi) * v
}

func (g *Generator) uniform(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + g.rng.Float64()*(max-min)
}

func (g *Generator) normal(mu, sigma float64) float64 {
	if sigma == 0 {
		return mu
	}
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: g.src}.Rand()
}
