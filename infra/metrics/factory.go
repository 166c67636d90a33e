package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mfragab5890/ev-stats/core/factory"
	coremetrics "github.com/mfragab5890/ev-stats/core/metrics"
)

// init registers built-in analysis sinks.
func init() {
	_ = coremetrics.RegisterAnalysisSink("nop", func(map[string]any) (coremetrics.AnalysisSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterAnalysisSink("prometheus", func(map[string]any) (coremetrics.AnalysisSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterAnalysisSink("influx", func(conf map[string]any) (coremetrics.AnalysisSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})

	_ = coremetrics.RegisterAnalysisSink("mqtt", func(conf map[string]any) (coremetrics.AnalysisSink, error) {
		var c MQTTConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewMQTTSink(c)
	})
}
