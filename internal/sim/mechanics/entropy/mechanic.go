// Package entropy wears durability down over time and classifies what is
// left.
package entropy

import (
	"math"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
)

type Mechanic[D DecayModel, S StatusPolicy] struct{}

type (
	Default  = Mechanic[LinearDecay, RatioStatus]
	Weather  = Mechanic[EnvironmentalDecay, RatioStatus]
	Halflife = Mechanic[ExponentialDecay, RatioStatus]
)

// Step emits DecayApplied when durability was lost, StatusChanged when the
// status moved, and EntityDestroyed when AutoDestroyOnZero is set and the
// entity just reached Destroyed.
func (Mechanic[D, S]) Step(cfg Config, st *State, in Input, out emit.Emitter[Event]) {
	var (
		model  D
		status S
	)
	dt := in.TimeDelta
	if dt < 0 || math.IsNaN(dt) {
		dt = 0
	}
	old := st.Status
	if old == "" {
		old = status.Classify(st.Ratio())
	}

	delta := model.Delta(*st, in.Environment, dt) * cfg.GlobalDecayMultiplier
	loss := math.Min(st.Current, math.Max(0, -delta))
	if math.IsNaN(loss) {
		loss = 0
	}
	if loss > 0 {
		st.Current -= loss
		out.Emit(DecayApplied{Amount: loss, Current: st.Current})
	}
	settle[S](cfg, st, old, out)
}

// Repair restores up to amount, capped at Max. A destroyed entity cannot be
// repaired.
func (Mechanic[D, S]) Repair(cfg Config, st *State, amount float64, out emit.Emitter[Event]) {
	var status S
	old := status.Classify(st.Ratio())
	if old == StatusDestroyed || !(amount > 0) {
		return
	}
	gain := math.Min(amount, st.Max-st.Current)
	if gain <= 0 {
		return
	}
	st.Current += gain
	out.Emit(Repaired{Amount: gain, Current: st.Current})
	settle[S](cfg, st, old, out)
}

func settle[S StatusPolicy](cfg Config, st *State, old Status, out emit.Emitter[Event]) {
	var status S
	next := status.Classify(st.Ratio())
	st.Status = next
	if next == old {
		return
	}
	out.Emit(StatusChanged{Old: old, New: next})
	if next == StatusDestroyed && cfg.AutoDestroyOnZero {
		out.Emit(EntityDestroyed{})
	}
}
