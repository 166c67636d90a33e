package metrics

import "github.com/mfragab5890/ev-stats/core/factory"

var sinkRegistry = factory.NewRegistry[AnalysisSink]()

// RegisterAnalysisSink adds a sink factory identified by name.
func RegisterAnalysisSink(name string, f factory.Factory[AnalysisSink]) error {
	return sinkRegistry.Register(name, f)
}

// SinkTypes lists the registered sink names.
func SinkTypes() []string { return sinkRegistry.Types() }

// NewAnalysisSink creates an AnalysisSink from the provided configuration.
func NewAnalysisSink(cfgs []factory.ModuleConfig) (AnalysisSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]AnalysisSink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			closeAll(sinks[:i])
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}

func closeAll(sinks []AnalysisSink) {
	for _, s := range sinks {
		if c, ok := s.(Closer); ok {
			_ = c.Close()
		}
	}
}
