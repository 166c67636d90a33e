package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mfragab5890/ev-stats/config"
	"github.com/mfragab5890/ev-stats/core/battery"
	coremetrics "github.com/mfragab5890/ev-stats/core/metrics"
	"github.com/mfragab5890/ev-stats/core/model"
	"github.com/mfragab5890/ev-stats/infra/logger"
	"github.com/mfragab5890/ev-stats/internal/logfile"
)

// Report is the outcome of analysing one battery log.
type Report struct {
	RunID    string                  `json:"run_id"`
	Source   string                  `json:"source"`
	Samples  int                     `json:"samples"`
	Result   *battery.AnalysisResult `json:"result,omitempty"`
	Error    string                  `json:"error,omitempty"`
	Duration time.Duration           `json:"-"`
}

// Failed reports whether the analysis did not produce a result.
func (r Report) Failed() bool { return r.Result == nil }

// Runner analyses batches of battery logs in parallel and forwards a summary
// of every run to the configured sink.
type Runner struct {
	engine  *battery.Engine
	sink    coremetrics.AnalysisSink
	log     logger.Logger
	workers int

	now   func() time.Time
	newID func() string
	read  func(path string) (model.BatteryLog, error)
}

// New builds a Runner from the configuration.
func New(cfg *config.Config) (*Runner, error) {
	logg := logger.NewZerologLogger("runner", logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	engLog := logger.NewZerologLogger("engine", logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	engine, err := battery.NewEngine(cfg.Thresholds, battery.WithLogger(engLog))
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	sink, err := coremetrics.NewAnalysisSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	return NewRunner(engine, sink, logg, cfg.Analysis.Workers), nil
}

// NewRunner wires a Runner from its parts. A nil sink records nothing and a
// nil logger discards output.
func NewRunner(engine *battery.Engine, sink coremetrics.AnalysisSink, log logger.Logger, workers int) *Runner {
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		engine:  engine,
		sink:    sink,
		log:     log,
		workers: workers,
		now:     time.Now,
		newID:   uuid.NewString,
		read:    logfile.ReadFile,
	}
}

// AnalyzeFiles decodes and analyses every file. Reports keep the order of
// paths. A file that cannot be read or analysed yields a failed report and
// does not stop the batch; only context cancellation returns an error.
func (r *Runner) AnalyzeFiles(ctx context.Context, paths []string) ([]Report, error) {
	reports := make([]Report, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = r.analyzeFile(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return reports, err
	}
	return reports, nil
}

func (r *Runner) analyzeFile(path string) Report {
	runID := r.newID()
	l, err := r.read(path)
	if err != nil {
		return r.fail(runID, path, 0, 0, err)
	}
	return r.analyze(runID, path, l)
}

// Analyze runs a single log that is already decoded.
func (r *Runner) Analyze(source string, l model.BatteryLog) Report {
	return r.analyze(r.newID(), source, l)
}

func (r *Runner) analyze(runID, source string, l model.BatteryLog) Report {
	start := r.now()
	res, err := r.engine.Analyze(l)
	took := r.now().Sub(start)
	if err != nil {
		return r.fail(runID, source, len(l.Samples), took, err)
	}
	log := r.runLog(runID)
	log.Infow("analysis complete", map[string]any{
		"source":     source,
		"vin":        l.Vehicle.VIN,
		"samples":    len(l.Samples),
		"elapsed_ms": float64(took.Microseconds()) / 1000,
		"anomalies":  res.Anomalies.Counts().Total(),
	})
	ev := coremetrics.NewAnalysisEvent(runID, source, len(l.Samples), res, took, r.now())
	if err := r.sink.RecordAnalysis(ev); err != nil {
		log.Warnf("record analysis: %v", err)
	}
	return Report{RunID: runID, Source: source, Samples: len(l.Samples), Result: &res, Duration: took}
}

func (r *Runner) fail(runID, source string, samples int, took time.Duration, err error) Report {
	log := r.runLog(runID)
	if errors.Is(err, model.ErrMalformedInput) {
		log.Warnf("%s: rejected input: %v", source, err)
	} else {
		log.Errorf("%s: %v", source, err)
	}
	if fr, ok := r.sink.(coremetrics.FailureRecorder); ok {
		f := coremetrics.AnalysisFailure{RunID: runID, Source: source, Reason: err.Error(), Time: r.now()}
		if rerr := fr.RecordAnalysisFailure(f); rerr != nil {
			log.Warnf("record failure: %v", rerr)
		}
	}
	return Report{RunID: runID, Source: source, Samples: samples, Error: err.Error(), Duration: took}
}

// runLog tags the runner logger with the run ID when it supports fields.
func (r *Runner) runLog(runID string) logger.Logger {
	if z, ok := r.log.(*logger.ZerologLogger); ok {
		return z.With("run_id", runID)
	}
	return r.log
}

// Close releases the sink connections.
func (r *Runner) Close() error {
	if c, ok := r.sink.(coremetrics.Closer); ok {
		return c.Close()
	}
	return nil
}
