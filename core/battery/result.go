package battery

import "github.com/mfragab5890/ev-stats/core/model"

// VehicleInfo echoes the analysed vehicle.
type VehicleInfo struct {
	VIN                string  `json:"vin"`
	Make               string  `json:"make"`
	Model              string  `json:"model"`
	Year               int     `json:"year"`
	DesignCapacityKWh  float64 `json:"design_capacity_kwh"`
	NominalPackVoltage float64 `json:"nominal_pack_voltage"`
}

// AnalysisResult is the output of one analysis. It only holds plain values
// so it can be handed to any serializer.
type AnalysisResult struct {
	VehicleInfo VehicleInfo `json:"vehicle_info"`
	// SoH is nil when no charge run qualified for capacity estimation.
	SoH       *float64      `json:"soh"`
	Cycles    CycleCounts   `json:"cdc_data"`
	Anomalies AnomalyReport `json:"anomalies"`
}

// Summary condenses a result for logs and metrics.
type Summary struct {
	VIN       string        `json:"vin"`
	SoH       *float64      `json:"soh"`
	Cycles    CycleCounts   `json:"cycles"`
	Anomalies AnomalyCounts `json:"anomalies"`
}

// Summary returns the condensed form of the result.
func (r AnalysisResult) Summary() Summary {
	return Summary{
		VIN:       r.VehicleInfo.VIN,
		SoH:       r.SoH,
		Cycles:    r.Cycles,
		Anomalies: r.Anomalies.Counts(),
	}
}

// Assemble merges the partial outputs into a result. Nil anomaly lists are
// replaced with empty ones; nothing is filtered or reordered.
func Assemble(v model.VehicleProfile, soh *float64, cycles CycleCounts, anomalies AnomalyReport) AnalysisResult {
	return AnalysisResult{
		VehicleInfo: VehicleInfo{
			VIN:                v.VIN,
			Make:               v.Make,
			Model:              v.Model,
			Year:               v.Year,
			DesignCapacityKWh:  v.DesignCapacityKWh,
			NominalPackVoltage: v.NominalPackVoltage,
		},
		SoH:       soh,
		Cycles:    cycles,
		Anomalies: NewAnomalyReport().Merge(anomalies),
	}
}
