package battery

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/mfragab5890/ev-stats/core/model"
)

// AnomalyKind identifies one of the four anomaly families.
type AnomalyKind string

const (
	KindVoltageRange         AnomalyKind = "voltage_range"
	KindVoltageImbalance     AnomalyKind = "voltage_imbalance"
	KindTemperatureRange     AnomalyKind = "temperature_range"
	KindTemperatureImbalance AnomalyKind = "temperature_imbalance"
)

// Anomaly is implemented by every anomaly record.
type Anomaly interface {
	Kind() AnomalyKind
	// At returns the timestamp of the triggering sample.
	At() string
}

// Bound tells which side of a range was violated.
type Bound string

const (
	BoundHigh Bound = "high"
	BoundLow  Bound = "low"
)

// LoadRegime selects the voltage imbalance threshold.
type LoadRegime string

const (
	RegimeAtRest    LoadRegime = "at_rest"
	RegimeUnderLoad LoadRegime = "under_load"
)

// VoltageRangeAnomaly flags a cell outside the allowed voltage window.
type VoltageRangeAnomaly struct {
	MinVoltage        float64 `json:"min_voltage"`
	MaxVoltage        float64 `json:"max_voltage"`
	MaxAllowedVoltage float64 `json:"max_allowed_voltage"`
	MinAllowedVoltage float64 `json:"min_allowed_voltage"`
	Bound             Bound   `json:"bound"`
	Comment           string  `json:"comment"`
	Timestamp         string  `json:"timestamp"`
}

func (VoltageRangeAnomaly) Kind() AnomalyKind { return KindVoltageRange }
func (a VoltageRangeAnomaly) At() string      { return a.Timestamp }

// VoltageImbalanceAnomaly flags a cell voltage spread above the threshold of
// the current load regime.
type VoltageImbalanceAnomaly struct {
	VoltageDifferenceMV float64    `json:"voltage_difference"`
	Threshold           float64    `json:"threshold"`
	Regime              LoadRegime `json:"regime"`
	CRate               float64    `json:"c_rate"`
	Comment             string     `json:"comment"`
	Timestamp           string     `json:"timestamp"`
}

func (VoltageImbalanceAnomaly) Kind() AnomalyKind { return KindVoltageImbalance }
func (a VoltageImbalanceAnomaly) At() string      { return a.Timestamp }

// TemperatureRangeAnomaly flags a cell outside the allowed temperature window.
type TemperatureRangeAnomaly struct {
	MinCellTemperature        float64 `json:"min_cell_temperature"`
	MaxCellTemperature        float64 `json:"max_cell_temperature"`
	MinAllowedCellTemperature float64 `json:"min_allowed_cell_temperature"`
	MaxAllowedCellTemperature float64 `json:"max_allowed_cell_temperature"`
	Bound                     Bound   `json:"bound"`
	Comment                   string  `json:"comment"`
	Timestamp                 string  `json:"timestamp"`
}

func (TemperatureRangeAnomaly) Kind() AnomalyKind { return KindTemperatureRange }
func (a TemperatureRangeAnomaly) At() string      { return a.Timestamp }

// TemperatureImbalanceAnomaly flags a cell temperature spread above the limit.
type TemperatureImbalanceAnomaly struct {
	CellsTemperatureDifference    float64 `json:"cells_temperature_difference"`
	MaxCellsTemperatureDifference float64 `json:"max_cells_temperature_difference"`
	Comment                       string  `json:"comment"`
	Timestamp                     string  `json:"timestamp"`
}

func (TemperatureImbalanceAnomaly) Kind() AnomalyKind { return KindTemperatureImbalance }
func (a TemperatureImbalanceAnomaly) At() string      { return a.Timestamp }

// VoltageAnomalies groups the voltage findings.
type VoltageAnomalies struct {
	Range     []VoltageRangeAnomaly     `json:"voltage_range_anomalies"`
	Imbalance []VoltageImbalanceAnomaly `json:"voltage_difference_anomalies"`
}

// TemperatureAnomalies groups the temperature findings.
type TemperatureAnomalies struct {
	Range     []TemperatureRangeAnomaly     `json:"temperature_range_anomalies"`
	Imbalance []TemperatureImbalanceAnomaly `json:"temperature_difference_anomalies"`
}

// AnomalyReport holds every anomaly of an analysis in sample order.
type AnomalyReport struct {
	Voltage     VoltageAnomalies     `json:"voltage"`
	Temperature TemperatureAnomalies `json:"temperature"`
}

// NewAnomalyReport returns a report whose lists are empty but non-nil so that
// they serialize as [] rather than null.
func NewAnomalyReport() AnomalyReport {
	return AnomalyReport{
		Voltage: VoltageAnomalies{
			Range:     []VoltageRangeAnomaly{},
			Imbalance: []VoltageImbalanceAnomaly{},
		},
		Temperature: TemperatureAnomalies{
			Range:     []TemperatureRangeAnomaly{},
			Imbalance: []TemperatureImbalanceAnomaly{},
		},
	}
}

// Merge appends the findings of f after those of r.
func (r AnomalyReport) Merge(f AnomalyReport) AnomalyReport {
	r.Voltage.Range = append(r.Voltage.Range, f.Voltage.Range...)
	r.Voltage.Imbalance = append(r.Voltage.Imbalance, f.Voltage.Imbalance...)
	r.Temperature.Range = append(r.Temperature.Range, f.Temperature.Range...)
	r.Temperature.Imbalance = append(r.Temperature.Imbalance, f.Temperature.Imbalance...)
	return r
}

// All flattens the report into a single list, voltage before temperature.
func (r AnomalyReport) All() []Anomaly {
	out := make([]Anomaly, 0, r.Counts().Total())
	for _, a := range r.Voltage.Range {
		out = append(out, a)
	}
	for _, a := range r.Voltage.Imbalance {
		out = append(out, a)
	}
	for _, a := range r.Temperature.Range {
		out = append(out, a)
	}
	for _, a := range r.Temperature.Imbalance {
		out = append(out, a)
	}
	return out
}

// AnomalyCounts is the number of records per kind.
type AnomalyCounts struct {
	VoltageRange         int `json:"voltage_range"`
	VoltageImbalance     int `json:"voltage_imbalance"`
	TemperatureRange     int `json:"temperature_range"`
	TemperatureImbalance int `json:"temperature_imbalance"`
}

// Total returns the sum over all kinds.
func (c AnomalyCounts) Total() int {
	return c.VoltageRange + c.VoltageImbalance + c.TemperatureRange + c.TemperatureImbalance
}

// ByKind returns the counts keyed by kind.
func (c AnomalyCounts) ByKind() map[AnomalyKind]int {
	return map[AnomalyKind]int{
		KindVoltageRange:         c.VoltageRange,
		KindVoltageImbalance:     c.VoltageImbalance,
		KindTemperatureRange:     c.TemperatureRange,
		KindTemperatureImbalance: c.TemperatureImbalance,
	}
}

// Counts returns the number of records per kind.
func (r AnomalyReport) Counts() AnomalyCounts {
	return AnomalyCounts{
		VoltageRange:         len(r.Voltage.Range),
		VoltageImbalance:     len(r.Voltage.Imbalance),
		TemperatureRange:     len(r.Temperature.Range),
		TemperatureImbalance: len(r.Temperature.Imbalance),
	}
}

// Detector checks single samples against the thresholds.
type Detector struct {
	th        Thresholds
	nominalAh float64
}

// NewDetector prepares a detector for the given vehicle.
func NewDetector(th Thresholds, v model.VehicleProfile) Detector {
	return Detector{th: th, nominalAh: v.NominalCapacityAh()}
}

// Inspect returns the anomalies raised by one sample. It does not look at
// any other sample.
func (d Detector) Inspect(s model.TelemetrySample) AnomalyReport {
	var r AnomalyReport
	d.inspectVoltage(s, &r.Voltage)
	d.inspectTemperature(s, &r.Temperature)
	return r
}

// CRate returns the pack current normalised by the nominal capacity.
func (d Detector) CRate(packCurrent float64) float64 {
	return math.Abs(packCurrent) / d.nominalAh
}

func (d Detector) inspectVoltage(s model.TelemetrySample, out *VoltageAnomalies) {
	minV := floats.Min(s.CellVoltages)
	maxV := floats.Max(s.CellVoltages)
	diffMV := (maxV - minV) * 1000

	rangeAnomaly := func(b Bound, comment string) VoltageRangeAnomaly {
		return VoltageRangeAnomaly{
			MinVoltage:        minV,
			MaxVoltage:        maxV,
			MaxAllowedVoltage: d.th.MaxCellVoltage,
			MinAllowedVoltage: d.th.MinCellVoltage,
			Bound:             b,
			Comment:           comment,
			Timestamp:         s.Timestamp,
		}
	}
	if maxV > d.th.MaxCellVoltage {
		out.Range = append(out.Range, rangeAnomaly(BoundHigh, "Cell voltage too high"))
	}
	if minV < d.th.MinCellVoltage {
		out.Range = append(out.Range, rangeAnomaly(BoundLow, "Cell voltage too low"))
	}

	cRate := d.CRate(s.PackCurrent)
	threshold := d.th.ImbalanceMVAtRest
	regime := RegimeAtRest
	comment := "Cell voltage difference exceeds threshold at rest"
	if cRate > d.th.CRateLoadThreshold {
		threshold = d.th.ImbalanceMVUnderLoad
		regime = RegimeUnderLoad
		comment = "Cell voltage difference exceeds threshold under load"
	}
	if diffMV > threshold {
		out.Imbalance = append(out.Imbalance, VoltageImbalanceAnomaly{
			VoltageDifferenceMV: diffMV,
			Threshold:           threshold,
			Regime:              regime,
			CRate:               cRate,
			Comment:             comment,
			Timestamp:           s.Timestamp,
		})
	}
}

func (d Detector) inspectTemperature(s model.TelemetrySample, out *TemperatureAnomalies) {
	minT := floats.Min(s.CellTempsC)
	maxT := floats.Max(s.CellTempsC)
	diff := maxT - minT

	rangeAnomaly := func(b Bound, comment string) TemperatureRangeAnomaly {
		return TemperatureRangeAnomaly{
			MinCellTemperature:        minT,
			MaxCellTemperature:        maxT,
			MinAllowedCellTemperature: d.th.MinCellTempC,
			MaxAllowedCellTemperature: d.th.MaxCellTempC,
			Bound:                     b,
			Comment:                   comment,
			Timestamp:                 s.Timestamp,
		}
	}
	if maxT > d.th.MaxCellTempC {
		out.Range = append(out.Range, rangeAnomaly(BoundHigh, "Cell temperature too high"))
	}
	if minT < d.th.MinCellTempC {
		out.Range = append(out.Range, rangeAnomaly(BoundLow, "Cell temperature too low"))
	}
	if diff > d.th.MaxCellTempDiffC {
		out.Imbalance = append(out.Imbalance, TemperatureImbalanceAnomaly{
			CellsTemperatureDifference:    diff,
			MaxCellsTemperatureDifference: d.th.MaxCellTempDiffC,
			Comment:                       "Cell temperature difference too high",
			Timestamp:                     s.Timestamp,
		})
	}
}
