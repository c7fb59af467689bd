package model

import (
	"testing"
)

func ragged() Dataset {
	return Dataset{Vessels: []VesselSeries{
		{
			Vessel: Vessel{Index: 1, MassGT: 1.0, A: 27.6, B: 1.5},
			Power:  []float64{100, 110, 120},
			V3:     []float64{1000, 1100, 1200},
			U2V:    []float64{10, 11, 12},
		},
		{
			Vessel: Vessel{Index: 2, MassGT: 2.0, A: 36.6, B: 2.55},
			Power:  []float64{200, 210},
			V3:     []float64{2000, 2100},
			U2V:    []float64{20, 21},
		},
	}}
}

func TestFlattenLengthsAndOrder(t *testing.T) {
	fd, err := ragged().Flatten()
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if fd.K != 2 || fd.N != 5 {
		t.Fatalf("expected K=2 N=5, got K=%d N=%d", fd.K, fd.N)
	}
	if len(fd.Power) != 5 || len(fd.V3) != 5 || len(fd.U2V) != 5 {
		t.Fatalf("observation arrays must have length 5")
	}
	if fd.Counts[0] != 3 || fd.Counts[1] != 2 {
		t.Fatalf("unexpected counts %v", fd.Counts)
	}
	// Vessel 1's observations precede vessel 2's.
	if fd.Power[0] != 100 || fd.Power[3] != 200 {
		t.Fatalf("flattened order broken: %v", fd.Power)
	}
	if err := fd.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSegmentsRoundTrip(t *testing.T) {
	ds := ragged()
	fd, err := ds.Flatten()
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	segs, err := fd.Segments()
	if err != nil {
		t.Fatalf("segments: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	for k, seg := range segs {
		want := ds.Vessels[k]
		if seg.Len() != want.Len() {
			t.Fatalf("segment %d: expected %d observations, got %d", k, want.Len(), seg.Len())
		}
		for j := range want.Power {
			if seg.Power[j] != want.Power[j] || seg.V3[j] != want.V3[j] || seg.U2V[j] != want.U2V[j] {
				t.Fatalf("segment %d observation %d does not round-trip", k, j)
			}
		}
	}
}

func TestFitDataValidateRejectsBadLayout(t *testing.T) {
	fd, err := ragged().Flatten()
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}

	bad := fd
	bad.Counts = []int{3, 3}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for counts not summing to n")
	}

	bad = fd
	bad.Counts = []int{5, 0}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for zero observation count")
	}

	bad = fd
	bad.Mass = []float64{1.0, -2.0}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for non-positive mass")
	}

	bad = fd
	bad.V3 = bad.V3[:len(bad.V3)-1]
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for misaligned arrays")
	}
}

func TestDatasetValidateRejectsEmptyVessel(t *testing.T) {
	ds := ragged()
	ds.Vessels[1].Power = nil
	ds.Vessels[1].V3 = nil
	ds.Vessels[1].U2V = nil
	if _, err := ds.Flatten(); err == nil {
		t.Fatalf("expected error for vessel without observations")
	}
}

func TestTruthParamsValidate(t *testing.T) {
	good := TruthParams{Alpha0: 18.6, Alpha1: 9.0, SigmaA: 1, Beta0: 0.45, Beta1: 1.05, SigmaB: 0.2, SigmaObs: 5}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}
	for _, bad := range []TruthParams{
		{SigmaA: -0.1},
		{SigmaB: -1},
		{SigmaObs: -0.001},
	} {
		if err := bad.Validate(); err == nil {
			t.Fatalf("expected rejection of negative scale: %+v", bad)
		}
	}
}
