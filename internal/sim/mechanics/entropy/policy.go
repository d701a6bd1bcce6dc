package entropy

import "math"

// DecayModel returns the signed change in durability over dt. Decay is
// negative.
type DecayModel interface {
	Delta(st State, env Environment, dt float64) float64
}

type StatusPolicy interface {
	Classify(ratio float64) Status
}

// LinearDecay loses DecayRate*Max*material per unit time.
type LinearDecay struct{}

func (LinearDecay) Delta(st State, _ Environment, dt float64) float64 {
	return -st.DecayRate * st.Max * st.Material.Factor() * dt
}

// ExponentialDecay loses a fraction of what is left: current*(1-(1-k)^dt)
// with k = DecayRate*material, capped at 1.
type ExponentialDecay struct{}

func (ExponentialDecay) Delta(st State, _ Environment, dt float64) float64 {
	k := math.Min(1, math.Max(0, st.DecayRate*st.Material.Factor()))
	return -st.Current * (1 - math.Pow(1-k, dt))
}

const heatThreshold = 25.0

// EnvironmentalDecay is LinearDecay scaled by 1 + humidity*sensitivity +
// corrosion + heat above 25 degrees per 50 degrees.
type EnvironmentalDecay struct{}

func (EnvironmentalDecay) Delta(st State, env Environment, dt float64) float64 {
	f := 1 + math.Max(0, env.Humidity)*st.Material.HumiditySensitivity() + math.Max(0, env.Corrosion)
	f += math.Max(0, env.Temperature-heatThreshold) / 50
	return LinearDecay{}.Delta(st, env, dt) * f
}

// RatioStatus: Intact >= 0.8, Worn >= 0.5, Damaged >= 0.2, Critical > 0,
// Destroyed at 0.
type RatioStatus struct{}

func (RatioStatus) Classify(r float64) Status {
	switch {
	case r >= 0.8:
		return StatusIntact
	case r >= 0.5:
		return StatusWorn
	case r >= 0.2:
		return StatusDamaged
	case r > 0:
		return StatusCritical
	}
	return StatusDestroyed
}
