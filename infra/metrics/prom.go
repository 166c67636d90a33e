package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mfragab5890/ev-stats/core/battery"
	coremetrics "github.com/mfragab5890/ev-stats/core/metrics"
)

// PromSink records analyses in Prometheus metrics.
type PromSink struct {
	analyses  *prometheus.CounterVec
	anomalies *prometheus.CounterVec
	soh       *prometheus.GaugeVec
	cycles    *prometheus.GaugeVec
	duration  prometheus.Histogram
}

// NewPromSink registers the analysis metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	analyses, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "battery_analyses_total",
		Help: "Total number of battery log analyses by outcome",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}
	anomalies, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "battery_anomalies_total",
		Help: "Total number of anomalies detected by kind",
	}, []string{"kind"}))
	if err != nil {
		return nil, err
	}
	soh, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "battery_soh_percent",
		Help: "Last estimated state of health per vehicle",
	}, []string{"vin"}))
	if err != nil {
		return nil, err
	}
	cycles, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "battery_equivalent_full_cycles",
		Help: "Equivalent full cycles seen in the last analysed log per vehicle",
	}, []string{"vin", "direction"}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "battery_analysis_duration_seconds",
		Help:    "Time spent analysing one battery log",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	}))
	if err != nil {
		return nil, err
	}
	s := &PromSink{analyses: analyses, anomalies: anomalies, soh: soh, cycles: cycles, duration: duration}
	s.initKinds()
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// RecordAnalysis updates counters, gauges and the duration histogram.
func (s *PromSink) RecordAnalysis(ev coremetrics.AnalysisEvent) error {
	s.analyses.WithLabelValues("success").Inc()
	for kind, n := range ev.Anomalies.ByKind() {
		s.anomalies.WithLabelValues(string(kind)).Add(float64(n))
	}
	if ev.SoH != nil {
		s.soh.WithLabelValues(ev.VIN).Set(*ev.SoH)
	}
	s.cycles.WithLabelValues(ev.VIN, "overall").Set(ev.Cycles.Overall)
	s.cycles.WithLabelValues(ev.VIN, "charge").Set(ev.Cycles.Charge)
	s.cycles.WithLabelValues(ev.VIN, "discharge").Set(ev.Cycles.Discharge)
	s.duration.Observe(ev.Duration.Seconds())
	return nil
}

// RecordAnalysisFailure counts a failed analysis.
func (s *PromSink) RecordAnalysisFailure(coremetrics.AnalysisFailure) error {
	s.analyses.WithLabelValues("failure").Inc()
	return nil
}

// Anomaly kinds are pre-declared so that zero counts are exported.
func (s *PromSink) initKinds() {
	for _, k := range []battery.AnomalyKind{
		battery.KindVoltageRange,
		battery.KindVoltageImbalance,
		battery.KindTemperatureRange,
		battery.KindTemperatureImbalance,
	} {
		s.anomalies.WithLabelValues(string(k))
	}
}
