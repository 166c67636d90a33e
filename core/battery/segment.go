package battery

import (
	"math"
	"slices"

	"github.com/mfragab5890/ev-stats/core/model"
)

// Phase is the position of the charge-run state machine.
type Phase int

const (
	// PhaseIdle means no charge run is open.
	PhaseIdle Phase = iota
	// PhaseAccumulating means a charge run is open and buffering samples.
	PhaseAccumulating
	// PhaseClosed means the last step closed a run.
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAccumulating:
		return "accumulating"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// chargeRun summarises the buffered samples of an open run. Only the first
// and last SoC and the energy sum are ever read back, so the pairs are not
// kept individually.
type chargeRun struct {
	samples  int
	startSoC float64
	endSoC   float64
	energy   float64
}

func (r chargeRun) add(soc, energy float64) chargeRun {
	if r.samples == 0 {
		r.startSoC = soc
	}
	r.samples++
	r.endSoC = soc
	r.energy += energy
	return r
}

// Closure describes how the last closed run was evaluated.
type Closure struct {
	Samples     int
	DeltaSoC    float64
	EnergyKWh   float64
	CapacityKWh float64
	SoH         float64
	// Accepted is false when the run was too short or empty.
	Accepted bool
}

// SegmentState is the accumulator folded over the charge samples of a log.
// Step never modifies its receiver.
type SegmentState struct {
	phase       Phase
	run         chargeRun
	reachedFull bool
	cycles      []float64
	last        *Closure
}

// Phase returns the current state machine position.
func (s SegmentState) Phase() Phase { return s.phase }

// Cycles returns a copy of the per-cycle SoH values collected so far.
func (s SegmentState) Cycles() []float64 { return slices.Clone(s.cycles) }

// LastClosure returns the evaluation of the run closed by the previous step.
func (s SegmentState) LastClosure() (Closure, bool) {
	if s.phase != PhaseClosed || s.last == nil {
		return Closure{}, false
	}
	return *s.last, true
}

// Step folds one charge sample into the state. closes tells whether the
// sample is the last one of its run.
func (s SegmentState) Step(sample model.TelemetrySample, closes bool, designCapacityKWh float64, th Thresholds) SegmentState {
	next := s
	next.last = nil
	next.phase = PhaseAccumulating
	if !s.reachedFull {
		next.run = s.run.add(sample.SoC, sample.EnergyInKWh)
	}
	next.reachedFull = math.Floor(sample.SoC) == 100

	if !closes {
		return next
	}
	c := evaluateRun(next.run, designCapacityKWh, th.MinDeltaSoC)
	if c.Accepted {
		next.cycles = append(slices.Clip(s.cycles), c.SoH)
	}
	next.last = &c
	next.phase = PhaseClosed
	next.run = chargeRun{}
	next.reachedFull = false
	return next
}

func evaluateRun(r chargeRun, designCapacityKWh, minDelta float64) Closure {
	c := Closure{Samples: r.samples, EnergyKWh: r.energy}
	if r.samples == 0 {
		return c
	}
	c.DeltaSoC = math.Abs(r.endSoC - r.startSoC)
	if c.DeltaSoC <= minDelta {
		return c
	}
	c.CapacityKWh = r.energy * 100 / c.DeltaSoC
	c.SoH = c.CapacityKWh / designCapacityKWh * 100
	c.Accepted = true
	return c
}

// ClosesRun reports whether samples[i] ends a charge run: it must be a charge
// sample followed by a non-charge sample or by the end of the log.
func ClosesRun(samples []model.TelemetrySample, i int) bool {
	if !samples[i].IsCharge() {
		return false
	}
	return i+1 == len(samples) || !samples[i+1].IsCharge()
}

// SegmentCycles runs the fold over a whole log and returns the per-cycle SoH
// values.
func SegmentCycles(samples []model.TelemetrySample, designCapacityKWh float64, th Thresholds) []float64 {
	var st SegmentState
	for i, s := range samples {
		if !s.IsCharge() {
			continue
		}
		st = st.Step(s, ClosesRun(samples, i), designCapacityKWh, th)
	}
	return st.Cycles()
}
