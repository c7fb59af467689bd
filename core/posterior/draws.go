// Package posterior collects posterior draws and reduces them to the
// percentile summaries used for reporting and plotting.
package posterior

import (
	"fmt"

	"github.com/marinelab/propfit/core/hbm"
)

// Draws holds posterior samples on the natural scale, one slice entry per
// retained draw.
type Draws struct {
	K int

	// Per-vessel parameters, indexed [vessel][draw].
	A     [][]float64
	B     [][]float64
	Sigma [][]float64

	// Population-level parameters, indexed [draw].
	Alpha0 []float64
	Alpha1 []float64
	Beta0  []float64
	Beta1  []float64
	SigmaA []float64
	SigmaB []float64
}

// Len returns the number of draws.
func (d *Draws) Len() int { return len(d.Alpha0) }

// FromSamples converts raw sampler output (flat parameter vectors) into
// natural-scale draws using the model's block layout.
func FromSamples(spec *hbm.Spec, samples [][]float64) (*Draws, error) {
	if spec == nil {
		return nil, fmt.Errorf("nil model spec")
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no posterior samples")
	}
	k := spec.Data.K
	d := &Draws{
		K:     k,
		A:     make([][]float64, k),
		B:     make([][]float64, k),
		Sigma: make([][]float64, k),
	}
	for _, theta := range samples {
		if len(theta) != spec.Dim() {
			return nil, fmt.Errorf("draw has %d parameters, expected %d", len(theta), spec.Dim())
		}
		p := spec.Unpack(theta)
		for i := 0; i < k; i++ {
			d.A[i] = append(d.A[i], p.A[i])
			d.B[i] = append(d.B[i], p.B[i])
			d.Sigma[i] = append(d.Sigma[i], p.Sigma[i])
		}
		d.Alpha0 = append(d.Alpha0, p.Alpha0)
		d.Alpha1 = append(d.Alpha1, p.Alpha1)
		d.Beta0 = append(d.Beta0, p.Beta0)
		d.Beta1 = append(d.Beta1, p.Beta1)
		d.SigmaA = append(d.SigmaA, p.SigmaA)
		d.SigmaB = append(d.SigmaB, p.SigmaB)
	}
	return d, nil
}
