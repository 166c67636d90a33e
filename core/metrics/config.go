package metrics

import "github.com/mfragab5890/ev-stats/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// Textfile, when set, receives the Prometheus registry in the
	// node-exporter textfile format after a batch completes.
	Textfile string `json:"textfile"`
}
