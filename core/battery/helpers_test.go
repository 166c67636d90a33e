package battery

import (
	"fmt"
	"sync"

	"github.com/mfragab5890/ev-stats/core/model"
)

func testVehicle() model.VehicleProfile {
	return model.VehicleProfile{
		VIN:                "WVWZZZ1JZXW000001",
		Make:               "Acme",
		Model:              "Volt",
		Year:               2021,
		DesignCapacityKWh:  50,
		NominalPackVoltage: 400,
	}
}

var tsCounter int

func sample(event model.EventKind, soc, energy float64) model.TelemetrySample {
	tsCounter++
	return model.TelemetrySample{
		Timestamp:    fmt.Sprintf("2024-05-01T10:%02d:00Z", tsCounter%60),
		Event:        event,
		SoC:          soc,
		EnergyInKWh:  energy,
		CellVoltages: []float64{3.7, 3.7},
		CellTempsC:   []float64{25, 25},
	}
}

func charge(soc, energy float64) model.TelemetrySample { return sample(model.EventCharge, soc, energy) }
func drive(soc float64) model.TelemetrySample          { return sample(model.EventDrive, soc, 0) }
func rest(soc float64) model.TelemetrySample           { return sample(model.EventRest, soc, 0) }

type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordingLogger) Debugf(format string, args ...any) {}
func (l *recordingLogger) Debugw(msg string, _ map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}
func (l *recordingLogger) Infof(string, ...any)         {}
func (l *recordingLogger) Infow(string, map[string]any) {}
func (l *recordingLogger) Warnf(string, ...any)         {}
func (l *recordingLogger) Errorf(string, ...any)        {}
