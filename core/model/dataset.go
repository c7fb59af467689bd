package model

import "fmt"

// VesselSeries holds the ragged observation sequences for one vessel. The
// three slices are index-aligned: entry j is one observation with measured
// power Power[j] and covariates V3[j] (speed cubed) and U2V[j]
// (wind-speed squared times cos of the relative wind angle times speed).
type VesselSeries struct {
	Vessel Vessel
	Power  []float64
	V3     []float64
	U2V    []float64
}

// Len returns the number of observations for this vessel.
func (s VesselSeries) Len() int { return len(s.Power) }

// Validate checks that the covariate slices are aligned and non-empty.
func (s VesselSeries) Validate() error {
	if err := s.Vessel.Validate(); err != nil {
		return err
	}
	if len(s.Power) == 0 {
		return fmt.Errorf("vessel %d: at least one observation required", s.Vessel.Index)
	}
	if len(s.V3) != len(s.Power) || len(s.U2V) != len(s.Power) {
		return fmt.Errorf("vessel %d: misaligned observation slices (%d power, %d v3, %d u2v)",
			s.Vessel.Index, len(s.Power), len(s.V3), len(s.U2V))
	}
	return nil
}

// Dataset is the ragged, per-vessel representation produced by the
// generator. Flatten converts it into the contiguous form consumed by the
// inference engine.
type Dataset struct {
	Vessels []VesselSeries
}

// Validate checks every vessel series.
func (d Dataset) Validate() error {
	if len(d.Vessels) == 0 {
		return fmt.Errorf("dataset has no vessels")
	}
	for _, s := range d.Vessels {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Flatten concatenates the per-vessel sequences in vessel order into the
// contiguous representation required by the sampler.
func (d Dataset) Flatten() (FitData, error) {
	if err := d.Validate(); err != nil {
		return FitData{}, err
	}
	fd := FitData{K: len(d.Vessels)}
	fd.Counts = make([]int, fd.K)
	fd.Mass = make([]float64, fd.K)
	for i, s := range d.Vessels {
		fd.Counts[i] = s.Len()
		fd.Mass[i] = s.Vessel.MassGT
		fd.N += s.Len()
		fd.Power = append(fd.Power, s.Power...)
		fd.V3 = append(fd.V3, s.V3...)
		fd.U2V = append(fd.U2V, s.U2V...)
	}
	return fd, nil
}

// FitData is the flattened dataset handed to the inference engine. All
// observations for vessel 1 precede those of vessel 2, and so on; Counts
// records the segment lengths.
type FitData struct {
	N      int       `json:"n"`
	K      int       `json:"k"`
	Counts []int     `json:"counts"`
	Mass   []float64 `json:"mass"`
	Power  []float64 `json:"power"`
	V3     []float64 `json:"v3"`
	U2V    []float64 `json:"u2v"`
}

// Validate checks the flattened-layout invariants: positive segment counts
// summing to N, positive masses and aligned array lengths.
func (f FitData) Validate() error {
	if f.K <= 0 {
		return fmt.Errorf("vessel count must be positive, got %d", f.K)
	}
	if len(f.Counts) != f.K {
		return fmt.Errorf("expected %d counts, got %d", f.K, len(f.Counts))
	}
	if len(f.Mass) != f.K {
		return fmt.Errorf("expected %d masses, got %d", f.K, len(f.Mass))
	}
	total := 0
	for k, c := range f.Counts {
		if c <= 0 {
			return fmt.Errorf("vessel %d: observation count must be positive, got %d", k+1, c)
		}
		total += c
	}
	if total != f.N {
		return fmt.Errorf("counts sum to %d, expected n=%d", total, f.N)
	}
	for k, m := range f.Mass {
		if m <= 0 {
			return fmt.Errorf("vessel %d: mass must be positive, got %g", k+1, m)
		}
	}
	if len(f.Power) != f.N || len(f.V3) != f.N || len(f.U2V) != f.N {
		return fmt.Errorf("observation arrays must have length %d (got %d power, %d v3, %d u2v)",
			f.N, len(f.Power), len(f.V3), len(f.U2V))
	}
	return nil
}

// Offsets returns the start index of each vessel segment plus a trailing
// sentinel equal to N, so segment k spans [Offsets[k], Offsets[k+1]).
func (f FitData) Offsets() []int {
	off := make([]int, f.K+1)
	for k, c := range f.Counts {
		off[k+1] = off[k] + c
	}
	return off
}

// Segments splits the flattened arrays back into the ragged per-vessel
// representation. It is the inverse of Dataset.Flatten for the observation
// arrays.
func (f FitData) Segments() ([]VesselSeries, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	off := f.Offsets()
	out := make([]VesselSeries, f.K)
	for k := 0; k < f.K; k++ {
		lo, hi := off[k], off[k+1]
		out[k] = VesselSeries{
			Vessel: Vessel{Index: k + 1, MassGT: f.Mass[k]},
			Power:  f.Power[lo:hi],
			V3:     f.V3[lo:hi],
			U2V:    f.U2V[lo:hi],
		}
	}
	return out, nil
}
