package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/marinelab/propfit/core/metrics"
)

// PromSink records fit results in Prometheus metrics.
type PromSink struct {
	fits     prometheus.Counter
	draws    prometheus.Counter
	rhat     prometheus.Gauge
	accept   *prometheus.GaugeVec
	duration prometheus.Histogram
}

// NewPromSink registers fit metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	fits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "propfit_fits_total",
		Help: "Total number of completed fits",
	})
	draws := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "propfit_posterior_draws_total",
		Help: "Total posterior draws retained across fits",
	})
	rhat := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "propfit_max_rhat",
		Help: "Largest split-Rhat of the most recent fit",
	})
	accept := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "propfit_chain_accept_rate",
		Help: "Post-warmup acceptance rate per chain of the most recent fit",
	}, []string{"chain"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "propfit_fit_duration_seconds",
		Help:    "Wall-clock sampling time",
		Buckets: prometheus.DefBuckets,
	})

	if err := register(reg, &fits); err != nil {
		return nil, err
	}
	if err := register(reg, &draws); err != nil {
		return nil, err
	}
	if err := register(reg, &rhat); err != nil {
		return nil, err
	}
	if err := register(reg, &accept); err != nil {
		return nil, err
	}
	if err := register(reg, &duration); err != nil {
		return nil, err
	}

	return &PromSink{fits: fits, draws: draws, rhat: rhat, accept: accept, duration: duration}, nil
}

// register adds a collector, reusing the existing one when it was already
// registered (tests build several sinks against the global registry).
func register[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			*c = are.ExistingCollector.(T)
			return nil
		}
		return err
	}
	return nil
}

// RecordFitResult updates the fit metrics.
func (s *PromSink) RecordFitResult(ev coremetrics.FitResultEvent) error {
	s.fits.Inc()
	s.draws.Add(float64(ev.Chains * ev.DrawsPerChain))
	s.rhat.Set(ev.MaxRhat)
	for c, rate := range ev.AcceptRate {
		s.accept.WithLabelValues(strconv.Itoa(c)).Set(rate)
	}
	s.duration.Observe(ev.Duration.Seconds())
	return nil
}
