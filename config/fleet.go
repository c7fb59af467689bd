package config

import (
	"fmt"
	"math/rand/v2"

	"github.com/marinelab/propfit/core/generate"
)

// FleetConfig describes the synthetic fleet. Masses and observation counts
// can be given explicitly; otherwise they are drawn uniformly from the
// configured ranges using the fleet seed.
type FleetConfig struct {
	Vessels int `json:"vessels"`

	// Explicit per-vessel values. When set, their length must equal Vessels.
	Masses []float64 `json:"masses"`
	Counts []int     `json:"counts"`

	// Sampling ranges used when explicit values are absent.
	MassMinGT float64 `json:"mass_min_gt"`
	MassMaxGT float64 `json:"mass_max_gt"`
	ObsMin    int     `json:"obs_min"`
	ObsMax    int     `json:"obs_max"`

	Seed       int64                    `json:"seed"`
	Covariates generate.CovariateRanges `json:"covariates"`
}

// SetDefaults applies fallback values for optional fields.
func (c *FleetConfig) SetDefaults() {
	if c.Vessels <= 0 {
		if len(c.Masses) > 0 {
			c.Vessels = len(c.Masses)
		} else {
			c.Vessels = 10
		}
	}
	if c.MassMinGT == 0 {
		c.MassMinGT = 0.5
	}
	if c.MassMaxGT == 0 {
		c.MassMaxGT = 3.0
	}
	if c.ObsMin <= 0 {
		c.ObsMin = 20
	}
	if c.ObsMax <= 0 {
		c.ObsMax = 40
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	c.Covariates.SetDefaults()
}

// Validate checks the fleet description.
func (c FleetConfig) Validate() error {
	if c.Vessels <= 0 {
		return fmt.Errorf("vessels must be positive, got %d", c.Vessels)
	}
	if len(c.Masses) > 0 && len(c.Masses) != c.Vessels {
		return fmt.Errorf("got %d masses for %d vessels", len(c.Masses), c.Vessels)
	}
	if len(c.Counts) > 0 && len(c.Counts) != c.Vessels {
		return fmt.Errorf("got %d counts for %d vessels", len(c.Counts), c.Vessels)
	}
	for k, m := range c.Masses {
		if m <= 0 {
			return fmt.Errorf("vessel %d: mass must be positive, got %g", k+1, m)
		}
	}
	for k, n := range c.Counts {
		if n <= 0 {
			return fmt.Errorf("vessel %d: observation count must be positive, got %d", k+1, n)
		}
	}
	if c.MassMinGT <= 0 || c.MassMinGT > c.MassMaxGT {
		return fmt.Errorf("invalid mass range [%g, %g]", c.MassMinGT, c.MassMaxGT)
	}
	if c.ObsMin <= 0 || c.ObsMin > c.ObsMax {
		return fmt.Errorf("invalid observation count range [%d, %d]", c.ObsMin, c.ObsMax)
	}
	return c.Covariates.Validate()
}

// Resolve returns the per-vessel masses and observation counts, drawing the
// unspecified ones from the configured ranges.
func (c FleetConfig) Resolve() ([]float64, []int) {
	rng := rand.New(rand.NewPCG(uint64(c.Seed), 0))
	masses := c.Masses
	if len(masses) == 0 {
		masses = make([]float64, c.Vessels)
		for i := range masses {
			masses[i] = c.MassMinGT + rng.Float64()*(c.MassMaxGT-c.MassMinGT)
		}
	}
	counts := c.Counts
	if len(counts) == 0 {
		counts = make([]int, c.Vessels)
		for i := range counts {
			counts[i] = c.ObsMin + rng.IntN(c.ObsMax-c.ObsMin+1)
		}
	}
	return masses, counts
}
