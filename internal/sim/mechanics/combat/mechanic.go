// Package combat resolves a single attack against a defender's hit points.
//
// A Mechanic is a zero-size value whose type parameters pick the damage
// curve, the defense model, the elemental table and the critical rule. The
// step runs curve, defense, element, blocked check, critical, minimum damage
// and absorption in that order and emits exactly one event.
package combat

import (
	"math"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
)

type Mechanic[C DamageCurve, D DefenseModel, E ElementalPolicy, K CriticalPolicy] struct{}

// Default is linear damage, subtractive defense, no elements, no crits.
type Default = Mechanic[Linear, Subtractive, NoElements, NoCritical]

// Elemental adds the element table and random criticals to Default.
type Elemental = Mechanic[Linear, Subtractive, ElementTable, RandomCritical]

func (Mechanic[C, D, E, K]) Step(cfg Config, st *State, in Input, out emit.Emitter[Event]) {
	var (
		curve   C
		defense D
		element E
		crit    K
	)
	if !st.IsAlive() {
		out.Emit(AlreadyDefeated{})
		return
	}

	power := math.Max(0, float64(in.AttackerPower))
	raw := curve.Curve(power, cfg)
	mitigated := defense.Apply(raw, float64(in.DefenderDefense), cfg)
	modified := element.Modify(mitigated, in.AttackerElement, in.DefenderElement)

	// Blocked is decided on the unrounded value; fractions still land.
	if modified <= 0 || math.IsNaN(modified) {
		out.Emit(Blocked{AttemptedDamage: roundDamage(modified)})
		return
	}

	isCrit := crit.IsCritical(in, cfg)
	if isCrit {
		modified *= cfg.CriticalMultiplier
	}
	dmg := max(roundDamage(modified), cfg.MinDamage)

	absorbed := min(dmg, st.CurrentHP)
	st.CurrentHP -= absorbed
	out.Emit(DamageDealt{
		Amount:     absorbed,
		IsCritical: isCrit,
		IsFatal:    st.CurrentHP <= 0,
	})
}

// roundDamage saturates at the int32 range so steep curves cannot overflow.
func roundDamage(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int(math.Round(v))
}
