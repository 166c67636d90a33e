// Package infra holds the adapters behind core interfaces: the zerolog
// logger and the Prometheus, InfluxDB and MQTT analysis sinks.
package infra
