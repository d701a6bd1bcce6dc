package evolution

import "math"

// DirectionPolicy returns a signed multiplier: positive grows, negative
// decays, zero pauses.
type DirectionPolicy interface {
	Direction(value, min, max, elapsed float64) float64
}

// EnvironmentalPolicy returns a non-negative multiplier; 0 halts, 1 is
// neutral.
type EnvironmentalPolicy interface {
	Multiplier(env Environment) float64
}

// RateCalculationPolicy combines the pieces into a signed rate per unit time.
type RateCalculationPolicy interface {
	Rate(base, value, min, max, direction, env float64) float64
}

type Growth struct{}

func (Growth) Direction(_, _, _, _ float64) float64 { return 1 }

type Decay struct{}

func (Decay) Direction(_, _, _, _ float64) float64 { return -1 }

type Static struct{}

func (Static) Direction(_, _, _, _ float64) float64 { return 0 }

// Oscillating follows sin(elapsed).
type Oscillating struct{}

func (Oscillating) Direction(_, _, _, elapsed float64) float64 { return math.Sin(elapsed) }

type NoEnvironment struct{}

func (NoEnvironment) Multiplier(Environment) float64 { return 1 }

// ScaledEnvironment uses Environment.Multiplier, floored at 0.
type ScaledEnvironment struct{}

func (ScaledEnvironment) Multiplier(env Environment) float64 {
	if math.IsNaN(env.Multiplier) {
		return 0
	}
	return math.Max(0, env.Multiplier)
}

const (
	OptimalTemperature   = 20.0
	TemperatureTolerance = 30.0
)

// TemperatureSensitive peaks at OptimalTemperature and falls linearly to 0
// at TemperatureTolerance degrees away. Humidity scales it by 0.5 + humidity,
// with humidity clamped to [0, 1].
type TemperatureSensitive struct{}

func (TemperatureSensitive) Multiplier(env Environment) float64 {
	t := 1 - math.Abs(env.Temperature-OptimalTemperature)/TemperatureTolerance
	if t <= 0 || math.IsNaN(t) {
		return 0
	}
	h := math.Max(0, math.Min(1, env.Humidity))
	return t * (0.5 + h)
}

type LinearRate struct{}

func (LinearRate) Rate(base, _, _, _, direction, env float64) float64 {
	return base * direction * env
}

// ExponentialRate is proportional to the distance from min, so a value
// sitting at min neither grows nor decays.
type ExponentialRate struct{}

func (ExponentialRate) Rate(base, value, min, _, direction, env float64) float64 {
	return base * direction * env * (value - min)
}

// LogisticRate is fastest halfway between min and max and vanishes at both
// ends: base*dir*env*4p(1-p), p = (value-min)/(max-min).
type LogisticRate struct{}

func (LogisticRate) Rate(base, value, min, max, direction, env float64) float64 {
	span := max - min
	if span <= 0 {
		return 0
	}
	p := (value - min) / span
	return base * direction * env * 4 * p * (1 - p)
}
