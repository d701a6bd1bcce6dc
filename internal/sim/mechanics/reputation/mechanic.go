// Package reputation tracks a score that moves by deltas, drifts back toward
// a neutral point over time and is held in bounds by a clamp policy.
package reputation

import (
	"math"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
)

type Mechanic[C ChangePolicy, D DecayPolicy, L ClampPolicy] struct{}

type (
	Default = Mechanic[LinearChange, NoDecay, HardClamp]
	// Standing fades toward neutral and resists extremes.
	Standing = Mechanic[DiminishingChange, ExponentialDecay, HardClamp]
	// Score is an unbounded-above counter that cannot go negative.
	Score = Mechanic[LinearChange, NoDecay, ZeroClamp]
)

// Step emits Changed, then Clamped when the clamp applied, then ThresholdCrossed
// when the band changed.
func (Mechanic[C, D, L]) Step(cfg Config, st *State, in Input, out emit.Emitter[Event]) {
	var (
		change C
		decay  D
		clamp  L
	)
	delta := in.Delta
	if math.IsNaN(delta) {
		delta = 0
	}
	old := st.Value
	v := change.Change(old, delta, cfg)
	v = decay.Decay(v, in.Elapsed, cfg)
	v, at, clamped := clamp.Clamp(v, cfg)
	st.Value = v

	out.Emit(Changed{Old: old, New: v, Delta: v - old})
	if clamped {
		out.Emit(Clamped{At: at, Value: v})
	}
	if ob, nb := cfg.BandOf(old), cfg.BandOf(v); ob != nb {
		out.Emit(ThresholdCrossed{OldBand: ob, NewBand: nb})
	}
}
