package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/mfragab5890/ev-stats/core/metrics"
	"github.com/mfragab5890/ev-stats/infra/logger"
)

// InfluxSink writes analysis summaries to an InfluxDB instance using the official client.
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
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.AnalysisSink {
	sink := NewInfluxSink(url, token, org, bucket)
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

// analysisPoint converts an event into a line protocol point.
func analysisPoint(ev coremetrics.AnalysisEvent) *write.Point {
	p := write.NewPointWithMeasurement("battery_analysis")
	addTags(p, "vin", ev.VIN, "source", ev.Source, "run_id", ev.RunID)
	p = p.AddField("samples", ev.Samples).
		AddField("overall_cycles", ev.Cycles.Overall).
		AddField("charge_cycles", ev.Cycles.Charge).
		AddField("discharge_cycles", ev.Cycles.Discharge).
		AddField("voltage_range_anomalies", ev.Anomalies.VoltageRange).
		AddField("voltage_imbalance_anomalies", ev.Anomalies.VoltageImbalance).
		AddField("temperature_range_anomalies", ev.Anomalies.TemperatureRange).
		AddField("temperature_imbalance_anomalies", ev.Anomalies.TemperatureImbalance).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000))
	if ev.SoH != nil {
		p = p.AddField("soh", *ev.SoH)
	}
	return p.SetTime(ev.Time)
}

// RecordAnalysis writes one battery_analysis point.
func (s *InfluxSink) RecordAnalysis(ev coremetrics.AnalysisEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, analysisPoint(ev))
}

// RecordAnalysisFailure writes a battery_analysis_failure point.
func (s *InfluxSink) RecordAnalysisFailure(ev coremetrics.AnalysisFailure) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("battery_analysis_failure")
	addTags(p, "source", ev.Source, "run_id", ev.RunID)
	p = p.AddField("reason", ev.Reason).SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

// addTags adds key/value pairs, skipping empty values which line protocol
// cannot encode.
func addTags(p *write.Point, kv ...string) {
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			p.AddTag(kv[i], kv[i+1])
		}
	}
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
