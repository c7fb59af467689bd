package metrics

import coremetrics "github.com/marinelab/propfit/core/metrics"

// MultiSink fans out fit results to multiple recorders.
type MultiSink struct {
	Sinks []coremetrics.FitRecorder
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.FitRecorder) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordFitResult forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordFitResult(ev coremetrics.FitResultEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordFitResult(ev); err != nil {
			return err
		}
	}
	return nil
}
