package metrics

import "errors"

// MultiSink fans out events to multiple sinks.
type MultiSink struct {
	Sinks []AnalysisSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...AnalysisSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAnalysis forwards the event to every sink. A failing sink does not
// prevent the others from receiving the event; all errors are joined.
func (m *MultiSink) RecordAnalysis(ev AnalysisEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordAnalysis(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordAnalysisFailure forwards failures to the sinks supporting them.
func (m *MultiSink) RecordAnalysisFailure(ev AnalysisFailure) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(FailureRecorder); ok {
			if err := rec.RecordAnalysisFailure(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes the sinks holding resources.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
