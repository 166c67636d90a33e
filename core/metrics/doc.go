// Package metrics defines the sinks that observe battery analyses. Sinks
// such as the Prometheus, InfluxDB and MQTT implementations in infra/metrics
// receive one AnalysisEvent per analysed log and can be combined with
// NewMultiSink. NewAnalysisSink builds the configured set of sinks through
// the factory registry and returns a MultiSink when several are configured.
package metrics
