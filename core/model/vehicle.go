package model

import (
	"math"
	"strings"
)

// VehicleProfile describes the vehicle a battery log belongs to.
type VehicleProfile struct {
	VIN                string  `json:"vin"`
	Make               string  `json:"make"`
	Model              string  `json:"model"`
	Year               int     `json:"year"`
	DesignCapacityKWh  float64 `json:"design_capacity_kwh"`  // usable pack capacity when new
	NominalPackVoltage float64 `json:"nominal_pack_voltage"` // pack voltage in V
}

// Validate checks that the profile carries everything the engine needs.
// In particular DesignCapacityKWh and NominalPackVoltage must be positive.
func (v VehicleProfile) Validate() error {
	if strings.TrimSpace(v.VIN) == "" {
		return profileError("vin", "is required")
	}
	if !positive(v.DesignCapacityKWh) {
		return profileError("design_capacity_kwh", "must be positive")
	}
	if !positive(v.NominalPackVoltage) {
		return profileError("nominal_pack_voltage", "must be positive")
	}
	return nil
}

// NominalCapacityAh returns the pack capacity in ampere-hours derived from the
// design energy and nominal voltage.
func (v VehicleProfile) NominalCapacityAh() float64 {
	return v.DesignCapacityKWh * 1000 / v.NominalPackVoltage
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
