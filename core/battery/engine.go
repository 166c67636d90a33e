package battery

import (
	"fmt"

	"github.com/mfragab5890/ev-stats/core/logger"
	"github.com/mfragab5890/ev-stats/core/model"
)

// Engine analyses battery logs against a fixed set of thresholds.
type Engine struct {
	th  Thresholds
	log logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-run debug output.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine validates the thresholds and returns an engine using them.
func NewEngine(th Thresholds, opts ...Option) (*Engine, error) {
	if err := th.Validate(); err != nil {
		return nil, fmt.Errorf("thresholds: %w", err)
	}
	e := &Engine{th: th, log: logger.NopLogger{}}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Thresholds returns the limits used by the engine.
func (e *Engine) Thresholds() Thresholds { return e.th }

// Analyze runs the full pass over the log. Any invalid field aborts the
// analysis and no partial result is returned. An empty log is valid.
func (e *Engine) Analyze(l model.BatteryLog) (AnalysisResult, error) {
	if err := l.Validate(); err != nil {
		return AnalysisResult{}, err
	}
	design := l.Vehicle.DesignCapacityKWh
	detector := NewDetector(e.th, l.Vehicle)

	var (
		counter   CycleCounter
		segments  SegmentState
		anomalies = NewAnomalyReport()
	)
	for i, s := range l.Samples {
		counter = counter.Observe(s.SoC, s.Event)
		found := detector.Inspect(s)
		if found.Counts().Total() > 0 {
			e.logAnomalies(l.Vehicle.VIN, i, found)
			anomalies = anomalies.Merge(found)
		}
		if !s.IsCharge() {
			continue
		}
		segments = segments.Step(s, ClosesRun(l.Samples, i), design, e.th)
		if c, ok := segments.LastClosure(); ok {
			e.logClosure(l.Vehicle.VIN, i, c)
		}
	}

	return Assemble(l.Vehicle, AverageSoH(segments.Cycles()), counter.Counts(), anomalies), nil
}

func (e *Engine) logClosure(vin string, index int, c Closure) {
	fields := map[string]any{
		"vin":        vin,
		"sample":     index,
		"samples":    c.Samples,
		"delta_soc":  c.DeltaSoC,
		"energy_kwh": c.EnergyKWh,
	}
	if !c.Accepted {
		e.log.Debugw("charge run excluded", fields)
		return
	}
	fields["soh"] = c.SoH
	e.log.Debugw("charge run evaluated", fields)
}

func (e *Engine) logAnomalies(vin string, index int, r AnomalyReport) {
	for _, a := range r.All() {
		e.log.Debugw("anomaly detected", map[string]any{
			"vin":    vin,
			"sample": index,
			"kind":   string(a.Kind()),
			"ts":     a.At(),
		})
	}
}

var defaultEngine = &Engine{th: DefaultThresholds(), log: logger.NopLogger{}}

// Analyze runs the default engine over the log.
func Analyze(l model.BatteryLog) (AnalysisResult, error) {
	return defaultEngine.Analyze(l)
}
