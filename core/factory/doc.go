// Package factory provides a small generic registry used to instantiate
// modules from configuration. A module is selected by a type string and
// receives a map of raw settings which its factory decodes into a typed
// struct.
//
// Example usage:
//
//	reg := factory.NewRegistry[metrics.AnalysisSink]()
//	reg.Register("nop", func(map[string]any) (metrics.AnalysisSink, error) {
//	    return metrics.NopSink{}, nil
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "nop"})
package factory
