package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/mfragab5890/ev-stats/core/battery"
	coremetrics "github.com/mfragab5890/ev-stats/core/metrics"
)

type bodyRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (b *bodyRecorder) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.bodies = append(b.bodies, strings.TrimSpace(string(data)))
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestInfluxSink_RecordAnalysis(t *testing.T) {
	rec := &bodyRecorder{}
	srv := rec.server()
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer func() { _ = sink.Close() }()
	now := time.Now()
	soh := 97.25
	ev := coremetrics.AnalysisEvent{
		RunID:     "run-1",
		Source:    "veh1.json",
		VIN:       "VIN1",
		SoH:       &soh,
		Cycles:    battery.CycleCounts{Overall: 1.5, Charge: 0.75, Discharge: 0.75},
		Anomalies: battery.AnomalyCounts{VoltageImbalance: 2},
		Samples:   42,
		Duration:  1500 * time.Microsecond,
		Time:      now,
	}
	if err := sink.RecordAnalysis(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("battery_analysis").
		AddTag("vin", "VIN1").
		AddTag("source", "veh1.json").
		AddTag("run_id", "run-1").
		AddField("samples", 42).
		AddField("overall_cycles", 1.5).
		AddField("charge_cycles", 0.75).
		AddField("discharge_cycles", 0.75).
		AddField("voltage_range_anomalies", 0).
		AddField("voltage_imbalance_anomalies", 2).
		AddField("temperature_range_anomalies", 0).
		AddField("temperature_imbalance_anomalies", 0).
		AddField("duration_ms", 1.5).
		AddField("soh", 97.25).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(rec.bodies) != 1 || rec.bodies[0] != expected {
		t.Errorf("unexpected bodies: %#v", rec.bodies)
	}
}

func TestInfluxSink_OmitsMissingSoH(t *testing.T) {
	rec := &bodyRecorder{}
	srv := rec.server()
	defer srv.Close()

	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	if err := sink.RecordAnalysis(coremetrics.AnalysisEvent{VIN: "VIN1", Time: time.Now()}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(rec.bodies) != 1 || strings.Contains(rec.bodies[0], "soh=") {
		t.Errorf("unexpected bodies: %#v", rec.bodies)
	}
}

func TestInfluxSink_RecordAnalysisFailure(t *testing.T) {
	rec := &bodyRecorder{}
	srv := rec.server()
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	if err := sink.RecordAnalysisFailure(coremetrics.AnalysisFailure{RunID: "r", Source: "a.json", Reason: "bad soc", Time: now}); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("battery_analysis_failure").
		AddTag("source", "a.json").
		AddTag("run_id", "r").
		AddField("reason", "bad soc").
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(rec.bodies) != 1 || rec.bodies[0] != exp {
		t.Errorf("bodies: %#v", rec.bodies)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
