// Package app wires the pipeline stages together: generate, fit, summarize,
// record, plot. Each stage consumes the complete output of the previous one.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/marinelab/propfit/config"
	"github.com/marinelab/propfit/core/generate"
	"github.com/marinelab/propfit/core/hbm"
	corelogger "github.com/marinelab/propfit/core/logger"
	coremetrics "github.com/marinelab/propfit/core/metrics"
	"github.com/marinelab/propfit/core/model"
	"github.com/marinelab/propfit/core/posterior"
	"github.com/marinelab/propfit/core/sampler"
	"github.com/marinelab/propfit/infra/logger"
	"github.com/marinelab/propfit/infra/metrics"
	"github.com/marinelab/propfit/infra/plot"
)

// rhatWarnThreshold flags chains that have not mixed. A failed run is
// reported, never retried.
const rhatWarnThreshold = 1.05

// Service runs the full synthetic-fit pipeline from a configuration.
type Service struct {
	cfg  *config.Config
	log  corelogger.Logger
	sink coremetrics.FitRecorder

	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.FitRecorder
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.FitRecorder = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	return &Service{
		cfg:         cfg,
		log:         logg,
		sink:        sink,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// GenerateData draws the synthetic fleet and flattens it for the sampler.
func (s *Service) GenerateData() (model.FitData, error) {
	masses, counts := s.cfg.Fleet.Resolve()
	gen, err := generate.New(s.cfg.Truth, s.cfg.Fleet.Covariates, s.cfg.Fleet.Seed, s.log)
	if err != nil {
		return model.FitData{}, fmt.Errorf("generator: %w", err)
	}
	ds, err := gen.Dataset(masses, counts)
	if err != nil {
		return model.FitData{}, fmt.Errorf("generate: %w", err)
	}
	fd, err := ds.Flatten()
	if err != nil {
		return model.FitData{}, fmt.Errorf("flatten: %w", err)
	}
	s.log.Infof("dataset ready: %d vessels, %d observations", fd.K, fd.N)
	return fd, nil
}

// Fit builds the hierarchical model for the dataset, samples its posterior
// and reduces the draws to percentile summaries. Sampler diagnostics are
// pushed to the configured sinks.
func (s *Service) Fit(ctx context.Context, fd model.FitData) (*posterior.FitSummary, *sampler.Result, error) {
	spec, err := hbm.New(fd)
	if err != nil {
		return nil, nil, fmt.Errorf("model spec: %w", err)
	}
	res, err := sampler.Sample(ctx, spec, s.cfg.Sampler)
	if err != nil {
		return nil, nil, fmt.Errorf("sampling: %w", err)
	}
	maxRhat := res.MaxRhat()
	if maxRhat > rhatWarnThreshold {
		s.log.Warnf("chains may not have mixed: max split-Rhat %.3f", maxRhat)
	}
	s.log.Debugw("sampling finished", map[string]any{
		"chains":   len(res.Chains),
		"duration": res.Duration.String(),
		"max_rhat": maxRhat,
	})

	draws, err := posterior.FromSamples(spec, res.Draws())
	if err != nil {
		return nil, nil, fmt.Errorf("posterior draws: %w", err)
	}
	sum, err := posterior.Summarize(draws, fd.Mass, s.cfg.Output.MassGrid)
	if err != nil {
		return nil, nil, fmt.Errorf("summarize: %w", err)
	}

	ev := coremetrics.FitResultEvent{
		RunID:         uuid.NewString(),
		Time:          time.Now(),
		Duration:      res.Duration,
		Chains:        len(res.Chains),
		DrawsPerChain: len(res.Chains[0]),
		AcceptRate:    res.AcceptRate,
		MaxRhat:       maxRhat,
		Summary:       sum,
	}
	if err := s.sink.RecordFitResult(ev); err != nil {
		s.log.Errorf("record fit result: %v", err)
	}
	return sum, res, nil
}

// Run executes the whole pipeline and writes the configured outputs.
func (s *Service) Run(ctx context.Context) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	fd, err := s.GenerateData()
	if err != nil {
		return err
	}
	if s.cfg.Output.DatasetPath != "" {
		if err := writeJSON(s.cfg.Output.DatasetPath, fd); err != nil {
			return fmt.Errorf("dump dataset: %w", err)
		}
	}

	sum, res, err := s.Fit(ctx, fd)
	if err != nil {
		return err
	}
	s.log.Infof("fit complete: %d chains, %d retained draws, max split-Rhat %.3f",
		len(res.Chains), len(res.Draws()), res.MaxRhat())

	if s.cfg.Output.SummaryPath != "" {
		if err := writeJSON(s.cfg.Output.SummaryPath, sum); err != nil {
			return fmt.Errorf("dump summary: %w", err)
		}
	}

	paths, err := plot.SaveAll(sum, s.cfg.Output.PlotDir)
	if err != nil {
		return fmt.Errorf("plots: %w", err)
	}
	for _, p := range paths {
		s.log.Infof("figure written: %s", p)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
