package battery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfragab5890/ev-stats/core/model"
)

func withCells(s model.TelemetrySample, volts, temps []float64, current float64) model.TelemetrySample {
	s.CellVoltages = volts
	s.CellTempsC = temps
	s.PackCurrent = current
	return s
}

func TestDetector_HealthySample(t *testing.T) {
	d := NewDetector(DefaultThresholds(), testVehicle())
	r := d.Inspect(rest(50))
	assert.Zero(t, r.Counts().Total())
}

func TestDetector_HighVoltageFiresRangeAndImbalance(t *testing.T) {
	d := NewDetector(DefaultThresholds(), testVehicle())
	for _, current := range []float64{0, -200} {
		s := withCells(rest(50), []float64{4.25, 4.10}, []float64{25, 25}, current)
		r := d.Inspect(s)
		require.Len(t, r.Voltage.Range, 1)
		assert.Equal(t, BoundHigh, r.Voltage.Range[0].Bound)
		assert.Equal(t, "Cell voltage too high", r.Voltage.Range[0].Comment)
		assert.Equal(t, 4.25, r.Voltage.Range[0].MaxVoltage)
		assert.Equal(t, 4.10, r.Voltage.Range[0].MinVoltage)
		assert.Equal(t, s.Timestamp, r.Voltage.Range[0].At())
		require.Len(t, r.Voltage.Imbalance, 1)
		assert.InDelta(t, 150.0, r.Voltage.Imbalance[0].VoltageDifferenceMV, 1e-6)
	}
}

func TestDetector_BothVoltageBoundsOnOneSample(t *testing.T) {
	d := NewDetector(DefaultThresholds(), testVehicle())
	r := d.Inspect(withCells(rest(50), []float64{4.3, 2.4}, []float64{25}, 0))
	require.Len(t, r.Voltage.Range, 2)
	assert.Equal(t, BoundHigh, r.Voltage.Range[0].Bound)
	assert.Equal(t, BoundLow, r.Voltage.Range[1].Bound)
	assert.Equal(t, "Cell voltage too low", r.Voltage.Range[1].Comment)
}

func TestDetector_ImbalanceRegime(t *testing.T) {
	// 50 kWh / 400 V = 125 Ah, so 12.5 A is the 0.1C boundary.
	d := NewDetector(DefaultThresholds(), testVehicle())
	volts := []float64{3.74, 3.70} // 40 mV

	atRest := d.Inspect(withCells(rest(50), volts, []float64{25}, 12.5))
	require.Len(t, atRest.Voltage.Imbalance, 1)
	a := atRest.Voltage.Imbalance[0]
	assert.Equal(t, RegimeAtRest, a.Regime)
	assert.Equal(t, 30.0, a.Threshold)
	assert.InDelta(t, 0.1, a.CRate, 1e-12)
	assert.Equal(t, "Cell voltage difference exceeds threshold at rest", a.Comment)

	underLoad := d.Inspect(withCells(drive(50), volts, []float64{25}, -50))
	assert.Empty(t, underLoad.Voltage.Imbalance)

	wide := d.Inspect(withCells(drive(50), []float64{3.80, 3.70}, []float64{25}, -50))
	require.Len(t, wide.Voltage.Imbalance, 1)
	assert.Equal(t, RegimeUnderLoad, wide.Voltage.Imbalance[0].Regime)
	assert.Equal(t, 60.0, wide.Voltage.Imbalance[0].Threshold)
	assert.Equal(t, KindVoltageImbalance, wide.Voltage.Imbalance[0].Kind())
}

func TestDetector_Temperature(t *testing.T) {
	d := NewDetector(DefaultThresholds(), testVehicle())
	tests := []struct {
		name      string
		temps     []float64
		bounds    []Bound
		imbalance bool
	}{
		{"hot and spread", []float64{56, 50}, []Bound{BoundHigh}, true},
		{"cold", []float64{-1, 2}, []Bound{BoundLow}, false},
		{"both", []float64{-1, 60}, []Bound{BoundHigh, BoundLow}, true},
		{"at limits", []float64{0, 55}, nil, true},
		{"spread equal to limit", []float64{20, 25}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := d.Inspect(withCells(rest(50), []float64{3.7}, tt.temps, 0))
			var got []Bound
			for _, a := range r.Temperature.Range {
				got = append(got, a.Bound)
				assert.Equal(t, 55.0, a.MaxAllowedCellTemperature)
				assert.Equal(t, 0.0, a.MinAllowedCellTemperature)
			}
			assert.Equal(t, tt.bounds, got)
			assert.Equal(t, tt.imbalance, len(r.Temperature.Imbalance) == 1)
		})
	}
}

func TestDetector_CustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.MaxCellTempC = 45
	d := NewDetector(th, testVehicle())
	r := d.Inspect(withCells(rest(50), []float64{3.7}, []float64{46}, 0))
	require.Len(t, r.Temperature.Range, 1)
	assert.Equal(t, 45.0, r.Temperature.Range[0].MaxAllowedCellTemperature)
}

func TestAnomalyReport_MergeAndAll(t *testing.T) {
	d := NewDetector(DefaultThresholds(), testVehicle())
	r := NewAnomalyReport()
	r = r.Merge(d.Inspect(withCells(rest(50), []float64{4.3, 4.3}, []float64{25}, 0)))
	r = r.Merge(d.Inspect(withCells(rest(50), []float64{3.7}, []float64{10, 20}, 0)))

	counts := r.Counts()
	assert.Equal(t, AnomalyCounts{VoltageRange: 1, TemperatureImbalance: 1}, counts)
	assert.Equal(t, 2, counts.Total())
	assert.Equal(t, 1, counts.ByKind()[KindTemperatureImbalance])

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, KindVoltageRange, all[0].Kind())
	assert.Equal(t, KindTemperatureImbalance, all[1].Kind())
}
