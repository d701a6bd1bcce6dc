package reputation

import "math"

type ChangePolicy interface {
	Change(value, delta float64, cfg Config) float64
}

type DecayPolicy interface {
	Decay(value, elapsed float64, cfg Config) float64
}

// ClampPolicy must be idempotent: Clamp(Clamp(x)) == Clamp(x).
type ClampPolicy interface {
	Clamp(value float64, cfg Config) (float64, Bound, bool)
}

type LinearChange struct{}

func (LinearChange) Change(value, delta float64, _ Config) float64 { return value + delta }

type ScaledChange struct{}

func (ScaledChange) Change(value, delta float64, cfg Config) float64 {
	return value + delta*cfg.ChangeScale
}

// DiminishingChange shrinks a delta by how little room is left in its
// direction, so gains slow near Max and losses slow near Min.
type DiminishingChange struct{}

func (DiminishingChange) Change(value, delta float64, cfg Config) float64 {
	span := cfg.Max - cfg.Min
	if span <= 0 {
		return value + delta
	}
	var room float64
	if delta >= 0 {
		room = (cfg.Max - value) / span
	} else {
		room = (value - cfg.Min) / span
	}
	room = math.Max(0, math.Min(1, room))
	return value + delta*room
}

type NoDecay struct{}

func (NoDecay) Decay(value, _ float64, _ Config) float64 { return value }

// LinearDecay moves toward Neutral by DecayRate per elapsed unit without
// overshooting it.
type LinearDecay struct{}

func (LinearDecay) Decay(value, elapsed float64, cfg Config) float64 {
	step := math.Abs(cfg.DecayRate) * math.Max(0, elapsed)
	switch {
	case value > cfg.Neutral:
		return math.Max(cfg.Neutral, value-step)
	case value < cfg.Neutral:
		return math.Min(cfg.Neutral, value+step)
	}
	return value
}

// ExponentialDecay is Neutral + (value-Neutral) * DecayRate^elapsed.
type ExponentialDecay struct{}

func (ExponentialDecay) Decay(value, elapsed float64, cfg Config) float64 {
	if elapsed <= 0 {
		return value
	}
	return cfg.Neutral + (value-cfg.Neutral)*math.Pow(cfg.DecayRate, elapsed)
}

// HardClamp holds the value in [Min, Max].
type HardClamp struct{}

func (HardClamp) Clamp(v float64, cfg Config) (float64, Bound, bool) {
	switch {
	case v < cfg.Min:
		return cfg.Min, BoundMin, true
	case v > cfg.Max:
		return cfg.Max, BoundMax, true
	}
	return v, "", false
}

// ZeroClamp floors the value at zero and leaves the top open.
type ZeroClamp struct{}

func (ZeroClamp) Clamp(v float64, _ Config) (float64, Bound, bool) {
	if v < 0 {
		return 0, BoundMin, true
	}
	return v, "", false
}

type NoClamp struct{}

func (NoClamp) Clamp(v float64, _ Config) (float64, Bound, bool) { return v, "", false }
