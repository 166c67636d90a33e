// Package battery derives battery-health diagnostics from an ordered EV
// telemetry log: an aggregate State-of-Health, equivalent full cycle counts
// and per-sample safety anomalies.
//
// An analysis is a single forward pass over the samples. Each sample feeds
// a CycleCounter, a Detector and, for charge events, the charge-run fold
// implemented by SegmentState. All three are value types, so an Engine holds
// no per-analysis state and can be shared between goroutines.
package battery
