package combat

import "math"

// DamageCurve shapes attacker power into raw damage.
type DamageCurve interface {
	Curve(base float64, cfg Config) float64
}

// DefenseModel mitigates raw damage. Results may be negative.
type DefenseModel interface {
	Apply(raw float64, defense float64, cfg Config) float64
}

// ElementalPolicy scales damage by the attacker/defender element pair and
// returns the damage unchanged when either element is absent.
type ElementalPolicy interface {
	Modify(damage float64, attacker, defender Element) float64
}

// CriticalPolicy decides whether a landed hit is critical.
type CriticalPolicy interface {
	IsCritical(in Input, cfg Config) bool
}

type Linear struct{}

func (Linear) Curve(base float64, _ Config) float64 { return base }

// Exponential returns base^CurveExponent (exponent <= 0 means 1).
type Exponential struct{}

func (Exponential) Curve(base float64, cfg Config) float64 {
	k := cfg.CurveExponent
	if k <= 0 {
		k = 1
	}
	return math.Pow(base, k)
}

// Logarithmic grows fast for small power and flattens out:
// CurveExponent * base * ln(1+base) / (1+ln(1+base)).
type Logarithmic struct{}

func (Logarithmic) Curve(base float64, cfg Config) float64 {
	k := cfg.CurveExponent
	if k <= 0 {
		k = 1
	}
	l := math.Log1p(base)
	return k * base * l / (1 + l)
}

type NoDefense struct{}

func (NoDefense) Apply(raw, _ float64, _ Config) float64 { return raw }

type Subtractive struct{}

func (Subtractive) Apply(raw, defense float64, _ Config) float64 { return raw - defense }

// Percentage never drives damage below zero; DefenseScale defaults to 100.
type Percentage struct{}

func (Percentage) Apply(raw, defense float64, cfg Config) float64 {
	if defense <= 0 {
		return raw
	}
	k := cfg.DefenseScale
	if k <= 0 {
		k = 100
	}
	return raw * (1 - defense/(defense+k))
}

// Multiplicative treats defense as a percentage reduction capped to [0, 100].
type Multiplicative struct{}

func (Multiplicative) Apply(raw, defense float64, _ Config) float64 {
	d := math.Max(0, math.Min(100, defense))
	return raw * (1 - d/100)
}

type NoElements struct{}

func (NoElements) Modify(damage float64, _, _ Element) float64 { return damage }

// ElementTable uses a fixed affinity cycle Fire > Wind > Earth > Water > Fire,
// with Light and Dark strong against each other. Strong hits double, the
// reverse halves, same-element hits halve. Unknown elements are neutral.
type ElementTable struct{}

const (
	strongMultiplier = 2.0
	weakMultiplier   = 0.5
)

var beats = map[Element]Element{
	ElementFire:  ElementWind,
	ElementWind:  ElementEarth,
	ElementEarth: ElementWater,
	ElementWater: ElementFire,
}

func (ElementTable) Modify(damage float64, attacker, defender Element) float64 {
	return damage * ElementMultiplier(attacker, defender)
}

func ElementMultiplier(attacker, defender Element) float64 {
	if attacker == ElementNone || defender == ElementNone {
		return 1
	}
	if (attacker == ElementLight && defender == ElementDark) || (attacker == ElementDark && defender == ElementLight) {
		return strongMultiplier
	}
	if _, ok := beats[attacker]; !ok {
		if attacker == defender && (attacker == ElementLight || attacker == ElementDark) {
			return weakMultiplier
		}
		return 1
	}
	switch {
	case beats[attacker] == defender:
		return strongMultiplier
	case beats[defender] == attacker:
		return weakMultiplier
	case attacker == defender:
		return weakMultiplier
	}
	return 1
}

type NoCritical struct{}

func (NoCritical) IsCritical(Input, Config) bool { return false }

// FlaggedCritical trusts Input.Critical, for hosts that roll elsewhere.
type FlaggedCritical struct{}

func (FlaggedCritical) IsCritical(in Input, _ Config) bool { return in.Critical }

// RandomCritical consumes exactly one draw from Input.Rand per landed hit and
// crits when the draw is below CriticalChance. A nil source never crits and
// consumes nothing.
type RandomCritical struct{}

func (RandomCritical) IsCritical(in Input, cfg Config) bool {
	if in.Rand == nil {
		return false
	}
	return in.Rand.Float64() < cfg.CriticalChance
}
