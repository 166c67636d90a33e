package battery

import (
	"math"

	"github.com/mfragab5890/ev-stats/core/model"
)

// CycleCounts expresses cumulative SoC traversal in equivalent full cycles.
type CycleCounts struct {
	Overall   float64 `json:"overall_cycles"`
	Charge    float64 `json:"charge_cycles"`
	Discharge float64 `json:"discharge_cycles"`
}

// CycleCounter accumulates SoC movement between consecutive samples.
// The zero value is ready to use.
type CycleCounter struct {
	seeded    bool
	lastSoC   float64
	overall   float64
	chargeSum float64
}

// Observe returns the counter updated with the next sample. The first
// observation only seeds the previous SoC.
func (c CycleCounter) Observe(soc float64, event model.EventKind) CycleCounter {
	if !c.seeded {
		c.seeded = true
		c.lastSoC = soc
		return c
	}
	delta := math.Abs(soc - c.lastSoC)
	c.overall += delta
	if event == model.EventCharge {
		c.chargeSum += delta
	}
	c.lastSoC = soc
	return c
}

// Counts converts the accumulated deltas into cycles. Discharge cycles are
// the difference of the two rounded figures.
func (c CycleCounter) Counts() CycleCounts {
	overall := round2(c.overall / 100)
	charge := round2(c.chargeSum / 100)
	return CycleCounts{
		Overall:   overall,
		Charge:    charge,
		Discharge: round2(overall - charge),
	}
}

// round2 rounds half to even at two decimals.
func round2(f float64) float64 {
	return math.RoundToEven(f*100) / 100
}
