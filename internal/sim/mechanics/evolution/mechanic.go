// Package evolution steps a bounded scalar that grows, decays or oscillates
// over time under environmental pressure.
package evolution

import (
	"math"
	"slices"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
)

type Mechanic[D DirectionPolicy, V EnvironmentalPolicy, R RateCalculationPolicy] struct{}

type (
	// Default grows linearly and ignores the environment.
	Default = Mechanic[Growth, NoEnvironment, LinearRate]
	// Spoilage is linear decay scaled by the host's environment multiplier.
	Spoilage = Mechanic[Decay, ScaledEnvironment, LinearRate]
	// Crop grows logistically and is sensitive to temperature.
	Crop = Mechanic[Growth, TemperatureSensitive, LogisticRate]
)

// Step emits, in order: ValueChanged, MinimumReached or MaximumReached,
// ThresholdCrossed for each threshold passed (in the direction of travel),
// StatusChanged. Nothing is emitted when the value and status stay put.
func (Mechanic[D, V, R]) Step(cfg Config, st *State, in Input, out emit.Emitter[Event]) {
	var (
		dir  D
		envp V
		rate R
	)
	mustBounds(st.Min, st.Max)

	dt := in.TimeDelta
	if dt < 0 || math.IsNaN(dt) {
		dt = 0
	}
	d := dir.Direction(st.Value, st.Min, st.Max, st.Elapsed)
	e := envp.Multiplier(in.Environment)
	r := rate.Rate(cfg.BaseRate*st.RateMultiplier, st.Value, st.Min, st.Max, d, e)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		r = 0
	}
	st.Elapsed += dt

	old := st.Value
	next := clamp(old+r*dt, st.Min, st.Max)
	if next != old {
		st.Value = next
		out.Emit(ValueChanged{Old: old, New: next, Delta: next - old})
		switch next {
		case st.Max:
			out.Emit(MaximumReached{Value: next})
		case st.Min:
			out.Emit(MinimumReached{Value: next})
		}
		for _, ev := range crossed(cfg.Thresholds, old, next) {
			out.Emit(ev)
		}
	}

	status := nextStatus(cfg, st, r)
	if status != st.Status {
		// A state that starts on a bound reaches it without moving.
		if next == old {
			switch status {
			case StatusCompleted:
				out.Emit(MaximumReached{Value: st.Value})
			case StatusDepleted:
				out.Emit(MinimumReached{Value: st.Value})
			}
		}
		out.Emit(StatusChanged{Old: st.Status, New: status})
		st.Status = status
	}
}

func nextStatus(cfg Config, st *State, rate float64) Status {
	switch {
	case st.Max > st.Min && st.Value == st.Max && rate > 0:
		return StatusCompleted
	case st.Max > st.Min && st.Value == st.Min && rate < 0:
		return StatusDepleted
	case rate == 0 && cfg.PauseWhenHalted && st.Status == StatusActive:
		return StatusPaused
	case rate != 0 && (st.Status == StatusPaused || st.Status == StatusCompleted || st.Status == StatusDepleted):
		return StatusActive
	}
	return st.Status
}

func crossed(thresholds []float64, old, next float64) []Event {
	var out []Event
	if next > old {
		for _, t := range sortedCopy(thresholds, false) {
			if old < t && next >= t {
				out = append(out, ThresholdCrossed{Threshold: t, Rising: true})
			}
		}
		return out
	}
	for _, t := range sortedCopy(thresholds, true) {
		if old >= t && next < t {
			out = append(out, ThresholdCrossed{Threshold: t, Rising: false})
		}
	}
	return out
}

func sortedCopy(vals []float64, desc bool) []float64 {
	out := slices.Clone(vals)
	slices.Sort(out)
	if desc {
		slices.Reverse(out)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
