// Package metrics defines the recorder interfaces used to publish fit
// results and sampler diagnostics to observability backends.
package metrics

import (
	"time"

	"github.com/marinelab/propfit/core/posterior"
)

// FitResultEvent captures one completed fit: posterior summaries plus the
// sampler diagnostics a reviewer would check before trusting them.
type FitResultEvent struct {
	RunID         string
	Time          time.Time
	Duration      time.Duration
	Chains        int
	DrawsPerChain int
	AcceptRate    []float64
	MaxRhat       float64
	Summary       *posterior.FitSummary
}

// FitRecorder records completed fits.
type FitRecorder interface {
	RecordFitResult(ev FitResultEvent) error
}

// NopSink implements FitRecorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordFitResult(FitResultEvent) error { return nil }
