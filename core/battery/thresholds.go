package battery

import "fmt"

// Thresholds holds the limits used by the engine. The defaults match a
// typical NMC lithium-ion pack.
type Thresholds struct {
	// MinDeltaSoC is the SoC swing a charge run must exceed to be used for
	// capacity estimation.
	MinDeltaSoC float64 `json:"min_delta_soc"`
	// MaxCellVoltage and MinCellVoltage bound a healthy cell in volts.
	MaxCellVoltage float64 `json:"max_cell_voltage"`
	MinCellVoltage float64 `json:"min_cell_voltage"`
	// ImbalanceMVAtRest is the allowed cell spread in millivolts while the pack
	// is at rest; ImbalanceMVUnderLoad applies above CRateLoadThreshold.
	ImbalanceMVAtRest    float64 `json:"imbalance_mv_at_rest"`
	ImbalanceMVUnderLoad float64 `json:"imbalance_mv_under_load"`
	CRateLoadThreshold   float64 `json:"c_rate_load_threshold"`
	// MaxCellTempC and MinCellTempC bound a healthy cell in degrees Celsius.
	MaxCellTempC float64 `json:"max_cell_temp_c"`
	MinCellTempC float64 `json:"min_cell_temp_c"`
	// MaxCellTempDiffC is the allowed spread between the hottest and the
	// coldest cell.
	MaxCellTempDiffC float64 `json:"max_cell_temp_diff_c"`
}

// DefaultThresholds returns the stock limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinDeltaSoC:          5.0,
		MaxCellVoltage:       4.2,
		MinCellVoltage:       2.5,
		ImbalanceMVAtRest:    30.0,
		ImbalanceMVUnderLoad: 60.0,
		CRateLoadThreshold:   0.1,
		MaxCellTempC:         55.0,
		MinCellTempC:         0.0,
		MaxCellTempDiffC:     5.0,
	}
}

// SetDefaults fills unset limits. MinCellTempC is left alone since zero is
// a meaningful limit.
func (t *Thresholds) SetDefaults() {
	d := DefaultThresholds()
	if t.MinDeltaSoC == 0 {
		t.MinDeltaSoC = d.MinDeltaSoC
	}
	if t.MaxCellVoltage == 0 {
		t.MaxCellVoltage = d.MaxCellVoltage
	}
	if t.MinCellVoltage == 0 {
		t.MinCellVoltage = d.MinCellVoltage
	}
	if t.ImbalanceMVAtRest == 0 {
		t.ImbalanceMVAtRest = d.ImbalanceMVAtRest
	}
	if t.ImbalanceMVUnderLoad == 0 {
		t.ImbalanceMVUnderLoad = d.ImbalanceMVUnderLoad
	}
	if t.CRateLoadThreshold == 0 {
		t.CRateLoadThreshold = d.CRateLoadThreshold
	}
	if t.MaxCellTempC == 0 {
		t.MaxCellTempC = d.MaxCellTempC
	}
	if t.MaxCellTempDiffC == 0 {
		t.MaxCellTempDiffC = d.MaxCellTempDiffC
	}
}

// Validate checks that every pair of limits is ordered.
func (t Thresholds) Validate() error {
	if t.MinDeltaSoC < 0 || t.MinDeltaSoC >= 100 {
		return fmt.Errorf("min_delta_soc must be within [0,100), got %v", t.MinDeltaSoC)
	}
	if t.MinCellVoltage >= t.MaxCellVoltage {
		return fmt.Errorf("min_cell_voltage %v must be below max_cell_voltage %v", t.MinCellVoltage, t.MaxCellVoltage)
	}
	if t.ImbalanceMVAtRest <= 0 || t.ImbalanceMVUnderLoad <= 0 {
		return fmt.Errorf("imbalance thresholds must be positive")
	}
	if t.CRateLoadThreshold <= 0 {
		return fmt.Errorf("c_rate_load_threshold must be positive")
	}
	if t.MinCellTempC >= t.MaxCellTempC {
		return fmt.Errorf("min_cell_temp_c %v must be below max_cell_temp_c %v", t.MinCellTempC, t.MaxCellTempC)
	}
	if t.MaxCellTempDiffC <= 0 {
		return fmt.Errorf("max_cell_temp_diff_c must be positive")
	}
	return nil
}
