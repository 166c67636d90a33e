package metrics

import (
	"time"

	"github.com/mfragab5890/ev-stats/core/battery"
)

// AnalysisEvent summarises one successful analysis.
type AnalysisEvent struct {
	RunID     string                `json:"run_id"`
	Source    string                `json:"source"`
	VIN       string                `json:"vin"`
	SoH       *float64              `json:"soh"`
	Cycles    battery.CycleCounts   `json:"cycles"`
	Anomalies battery.AnomalyCounts `json:"anomalies"`
	Samples   int                   `json:"samples"`
	Duration  time.Duration         `json:"duration_ns"`
	Time      time.Time             `json:"time"`
}

// NewAnalysisEvent builds the event for a finished analysis.
func NewAnalysisEvent(runID, source string, samples int, res battery.AnalysisResult, took time.Duration, at time.Time) AnalysisEvent {
	s := res.Summary()
	return AnalysisEvent{
		RunID:     runID,
		Source:    source,
		VIN:       s.VIN,
		SoH:       s.SoH,
		Cycles:    s.Cycles,
		Anomalies: s.Anomalies,
		Samples:   samples,
		Duration:  took,
		Time:      at,
	}
}

// AnalysisSink records analysis events for observability purposes.
type AnalysisSink interface {
	RecordAnalysis(ev AnalysisEvent) error
}

// AnalysisFailure captures an analysis that could not complete.
type AnalysisFailure struct {
	RunID  string
	Source string
	Reason string
	Time   time.Time
}

// FailureRecorder records failed analyses.
type FailureRecorder interface {
	RecordAnalysisFailure(ev AnalysisFailure) error
}

// Closer is implemented by sinks holding connections.
type Closer interface {
	Close() error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordAnalysis(AnalysisEvent) error          { return nil }
func (NopSink) RecordAnalysisFailure(AnalysisFailure) error { return nil }
