// Package logfile decodes battery log documents into model.BatteryLog.
//
// A document carries a "vehicle" object and its samples under "logs" or
// "samples". Sample times may be given as "ts" or "timestamp".
package logfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/mfragab5890/ev-stats/core/model"
)

type wireVehicle struct {
	VIN                *string  `json:"vin"`
	Make               string   `json:"make"`
	Model              string   `json:"model"`
	Year               int      `json:"year"`
	DesignCapacityKWh  *float64 `json:"design_capacity_kwh"`
	NominalPackVoltage *float64 `json:"nominal_pack_voltage"`
}

type wireSample struct {
	TS           *string   `json:"ts"`
	Timestamp    *string   `json:"timestamp"`
	Event        *string   `json:"event"`
	SoC          *float64  `json:"soc"`
	EnergyInKWh  *float64  `json:"energy_in_kwh"`
	PackCurrent  *float64  `json:"pack_current"`
	CellVoltages []float64 `json:"cell_voltages"`
	CellTempsC   []float64 `json:"cell_temps_c"`
}

type wireLog struct {
	Vehicle json.RawMessage   `json:"vehicle"`
	Logs    []json.RawMessage `json:"logs"`
	Samples []json.RawMessage `json:"samples"`
}

// Decode reads one battery log document from r. Missing required fields and
// values of the wrong JSON type are reported as *model.FieldError. The result
// is not validated further; the engine does that.
func Decode(r io.Reader) (model.BatteryLog, error) {
	var w wireLog
	dec := json.NewDecoder(r)
	if err := dec.Decode(&w); err != nil {
		return model.BatteryLog{}, fmt.Errorf("decode battery log: %w", err)
	}
	if len(w.Vehicle) == 0 || string(w.Vehicle) == "null" {
		return model.BatteryLog{}, model.NewFieldError(-1, "", "is required")
	}
	var wv wireVehicle
	if err := json.Unmarshal(w.Vehicle, &wv); err != nil {
		return model.BatteryLog{}, typeError(-1, err)
	}
	v, err := wv.profile()
	if err != nil {
		return model.BatteryLog{}, err
	}
	raw := w.Logs
	if raw == nil {
		raw = w.Samples
	}
	samples := make([]model.TelemetrySample, len(raw))
	for i, msg := range raw {
		var ws wireSample
		if err := json.Unmarshal(msg, &ws); err != nil {
			return model.BatteryLog{}, typeError(i, err)
		}
		s, err := ws.sample(i)
		if err != nil {
			return model.BatteryLog{}, err
		}
		samples[i] = s
	}
	return model.BatteryLog{Vehicle: v, Samples: samples}, nil
}

// typeError maps a JSON type mismatch onto the offending field.
func typeError(index int, err error) error {
	var ute *json.UnmarshalTypeError
	if !errors.As(err, &ute) {
		return fmt.Errorf("decode battery log: %w", err)
	}
	reason := fmt.Sprintf("must be %s, got %s", jsonKind(ute.Type), ute.Value)
	if ute.Field == "" {
		reason = "must be an object, got " + ute.Value
	}
	return model.NewFieldError(index, ute.Field, reason)
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64, reflect.Int32:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Slice:
		return "an array"
	default:
		return "a " + t.String()
	}
}

// ReadFile decodes the battery log stored at path.
func ReadFile(path string) (model.BatteryLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.BatteryLog{}, fmt.Errorf("open battery log: %w", err)
	}
	defer f.Close()
	l, err := Decode(f)
	if err != nil {
		var fe *model.FieldError
		if errors.As(err, &fe) {
			return model.BatteryLog{}, err
		}
		return model.BatteryLog{}, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

func (w wireVehicle) profile() (model.VehicleProfile, error) {
	switch {
	case w.VIN == nil:
		return model.VehicleProfile{}, model.NewFieldError(-1, "vin", "is required")
	case w.DesignCapacityKWh == nil:
		return model.VehicleProfile{}, model.NewFieldError(-1, "design_capacity_kwh", "is required")
	case w.NominalPackVoltage == nil:
		return model.VehicleProfile{}, model.NewFieldError(-1, "nominal_pack_voltage", "is required")
	}
	return model.VehicleProfile{
		VIN:                *w.VIN,
		Make:               w.Make,
		Model:              w.Model,
		Year:               w.Year,
		DesignCapacityKWh:  *w.DesignCapacityKWh,
		NominalPackVoltage: *w.NominalPackVoltage,
	}, nil
}

// sample converts the wire form. energy_in_kwh is only read from charge
// samples, so it may be omitted elsewhere.
func (w wireSample) sample(i int) (model.TelemetrySample, error) {
	ts := w.TS
	if ts == nil {
		ts = w.Timestamp
	}
	if ts == nil {
		return model.TelemetrySample{}, model.NewFieldError(i, "ts", "is required")
	}
	if w.Event == nil {
		return model.TelemetrySample{}, model.NewFieldError(i, "event", "is required")
	}
	ev, err := model.ParseEventKind(*w.Event)
	if err != nil {
		return model.TelemetrySample{}, model.NewFieldError(i, "event", err.Error())
	}
	if w.SoC == nil {
		return model.TelemetrySample{}, model.NewFieldError(i, "soc", "is required")
	}
	if w.PackCurrent == nil {
		return model.TelemetrySample{}, model.NewFieldError(i, "pack_current", "is required")
	}
	var energy float64
	if w.EnergyInKWh != nil {
		energy = *w.EnergyInKWh
	} else if ev == model.EventCharge {
		return model.TelemetrySample{}, model.NewFieldError(i, "energy_in_kwh", "is required for charge samples")
	}
	return model.TelemetrySample{
		Timestamp:    *ts,
		Event:        ev,
		SoC:          *w.SoC,
		EnergyInKWh:  energy,
		PackCurrent:  *w.PackCurrent,
		CellVoltages: w.CellVoltages,
		CellTempsC:   w.CellTempsC,
	}, nil
}
