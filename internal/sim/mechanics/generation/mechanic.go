// Package generation is the mirror of entropy: progress grows toward Max and
// the entity completes when it gets there.
package generation

import (
	"math"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
)

type Mechanic[G GrowthModel, S StatusPolicy] struct{}

type (
	Default  = Mechanic[LinearGrowth, RatioStatus]
	Research = Mechanic[DiminishingGrowth, RatioStatus]
	Colony   = Mechanic[LogisticGrowth, RatioStatus]
)

// Step emits ProgressApplied when progress was made, StatusChanged when the
// status moved, and EntityCompleted when AutoRemoveOnComplete is set and the
// entity just completed. Current never exceeds Max.
func (Mechanic[G, S]) Step(cfg Config, st *State, in Input, out emit.Emitter[Event]) {
	var (
		model  G
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

	delta := model.Delta(*st, in.Environment, dt) * cfg.GlobalGrowthMultiplier
	gain := math.Min(st.Max-st.Current, math.Max(0, delta))
	if math.IsNaN(gain) {
		gain = 0
	}
	if gain > 0 && st.Max-(st.Current+gain) < 1e-9 {
		gain = st.Max - st.Current
	}
	if gain > 0 {
		st.Current += gain
		out.Emit(ProgressApplied{Amount: gain, Current: st.Current})
	}

	next := status.Classify(st.Ratio())
	st.Status = next
	if next == old {
		return
	}
	out.Emit(StatusChanged{Old: old, New: next})
	if next == StatusCompleted && cfg.AutoRemoveOnComplete {
		out.Emit(EntityCompleted{})
	}
}
