package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/marinelab/propfit/core/logger"
	coremetrics "github.com/marinelab/propfit/core/metrics"
	infralogger "github.com/marinelab/propfit/infra/logger"
)

// InfluxSink writes fit results to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      infralogger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.FitRecorder {
	sink := NewInfluxSink(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordFitResult writes one point per vessel with its posterior coefficient
// bands, plus a run-level diagnostics point.
func (s *InfluxSink) RecordFitResult(ev coremetrics.FitResultEvent) error {
	if ev.Summary == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, vs := range ev.Summary.Vessels {
		p := write.NewPointWithMeasurement("vessel_coefficients").
			AddTag("run_id", ev.RunID).
			AddTag("vessel", strconv.Itoa(vs.Index)).
			AddField("mass", round3(vs.Mass)).
			AddField("a_median", round3(vs.A.Med)).
			AddField("a_lo", round3(vs.A.Lo)).
			AddField("a_hi", round3(vs.A.Hi)).
			AddField("b_median", round3(vs.B.Med)).
			AddField("b_lo", round3(vs.B.Lo)).
			AddField("b_hi", round3(vs.B.Hi)).
			AddField("sigma_median", round3(vs.Sigma.Med)).
			SetTime(ev.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	diag := write.NewPointWithMeasurement("fit_diagnostics").
		AddTag("run_id", ev.RunID).
		AddField("max_rhat", round3(ev.MaxRhat)).
		AddField("chains", ev.Chains).
		AddField("draws_per_chain", ev.DrawsPerChain).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, diag)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
