package model

import "fmt"

// Vessel represents a single ship in the fleet. Masses are expressed in
// normalized gross tonnage units so that the population-level trend
// coefficients stay on a comparable scale.
type Vessel struct {
	Index  int     // 1-based vessel index
	MassGT float64 // gross tonnage, normalized

	// Latent propulsion coefficients. During data generation these hold the
	// ground-truth draws; at inference time they are unknowns.
	A float64 // cubic-speed resistance coefficient
	B float64 // wind-resistance coefficient
}

// Validate checks that the vessel is physically plausible.
func (v Vessel) Validate() error {
	if v.MassGT <= 0 {
		return fmt.Errorf("vessel %d: mass must be positive, got %g", v.Index, v.MassGT)
	}
	return nil
}

// TruthParams holds the ground-truth population hyperparameters used by the
// synthetic data generator. The per-vessel coefficients are drawn as
//
//	a_k ~ Normal(Alpha0 + Alpha1*mass_k, SigmaA)
//	b_k ~ Normal(Beta0 + Beta1*mass_k, SigmaB)
//
// and observation noise is Normal(0, SigmaObs).
type TruthParams struct {
	Alpha0   float64 `json:"alpha0"`
	Alpha1   float64 `json:"alpha1"`
	SigmaA   float64 `json:"sigma_a"`
	Beta0    float64 `json:"beta0"`
	Beta1    float64 `json:"beta1"`
	SigmaB   float64 `json:"sigma_b"`
	SigmaObs float64 `json:"sigma_obs"`
}

// Validate rejects negative noise scales.
func (p TruthParams) Validate() error {
	if p.SigmaA < 0 {
		return fmt.Errorf("sigma_a must be non-negative, got %g", p.SigmaA)
	}
	if p.SigmaB < 0 {
		return fmt.Errorf("sigma_b must be non-negative, got %g", p.SigmaB)
	}
	if p.SigmaObs < 0 {
		return fmt.Errorf("sigma_obs must be non-negative, got %g", p.SigmaObs)
	}
	return nil
}
