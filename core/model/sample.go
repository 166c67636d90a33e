package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// EventKind defines what the vehicle was doing when a sample was taken.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventCharge
	EventDrive
	EventRest
)

// String returns the wire representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventCharge:
		return "charge"
	case EventDrive:
		return "drive"
	case EventRest:
		return "rest"
	default:
		return "unknown"
	}
}

// ParseEventKind converts a wire name into an EventKind. Matching is
// case-insensitive.
func ParseEventKind(s string) (EventKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "charge":
		return EventCharge, nil
	case "drive":
		return EventDrive, nil
	case "rest":
		return EventRest, nil
	default:
		return EventUnknown, fmt.Errorf("unknown event %q", s)
	}
}

// MarshalJSON encodes the kind as its string form.
func (k EventKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes the kind from its string form.
func (k *EventKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseEventKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// TelemetrySample is one entry of a battery log.
type TelemetrySample struct {
	Timestamp    string    `json:"ts"`
	Event        EventKind `json:"event"`
	SoC          float64   `json:"soc"`           // state of charge in percent [0,100]
	EnergyInKWh  float64   `json:"energy_in_kwh"` // energy added since the previous sample
	PackCurrent  float64   `json:"pack_current"`  // signed pack current in A
	CellVoltages []float64 `json:"cell_voltages"`
	CellTempsC   []float64 `json:"cell_temps_c"`
}

// IsCharge reports whether the sample belongs to a charge event.
func (s TelemetrySample) IsCharge() bool { return s.Event == EventCharge }

// Validate checks the sample found at position index of its log.
func (s TelemetrySample) Validate(index int) error {
	if strings.TrimSpace(s.Timestamp) == "" {
		return sampleError(index, "ts", "is required")
	}
	if s.Event == EventUnknown {
		return sampleError(index, "event", "must be one of charge, drive, rest")
	}
	if !finite(s.SoC) || s.SoC < 0 || s.SoC > 100 {
		return sampleError(index, "soc", fmt.Sprintf("must be within [0,100], got %v", s.SoC))
	}
	if !finite(s.EnergyInKWh) {
		return sampleError(index, "energy_in_kwh", "must be a finite number")
	}
	if !finite(s.PackCurrent) {
		return sampleError(index, "pack_current", "must be a finite number")
	}
	if err := validateCells(index, "cell_voltages", s.CellVoltages); err != nil {
		return err
	}
	return validateCells(index, "cell_temps_c", s.CellTempsC)
}

func validateCells(index int, field string, values []float64) error {
	if len(values) == 0 {
		return sampleError(index, field, "must not be empty")
	}
	for i, v := range values {
		if !finite(v) {
			return sampleError(index, fmt.Sprintf("%s[%d]", field, i), "must be a finite number")
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// BatteryLog is the input of one analysis: a vehicle and its ordered samples.
type BatteryLog struct {
	Vehicle VehicleProfile    `json:"vehicle"`
	Samples []TelemetrySample `json:"logs"`
}

// Validate checks the profile and every sample, stopping at the first error.
func (l BatteryLog) Validate() error {
	if err := l.Vehicle.Validate(); err != nil {
		return err
	}
	for i, s := range l.Samples {
		if err := s.Validate(i); err != nil {
			return err
		}
	}
	return nil
}
