package battery

import "gonum.org/v1/gonum/stat"

// AverageSoH reduces per-cycle SoH values to their mean rounded to two
// decimals. It returns nil when no cycle qualified.
func AverageSoH(cycles []float64) *float64 {
	if len(cycles) == 0 {
		return nil
	}
	avg := round2(stat.Mean(cycles, nil))
	return &avg
}
