package generation

import "math"

// GrowthModel returns the signed change in progress over dt. Growth is
// positive.
type GrowthModel interface {
	Delta(st State, env Environment, dt float64) float64
}

type StatusPolicy interface {
	Classify(ratio float64) Status
}

func efficiency(env Environment) float64 {
	if math.IsNaN(env.Efficiency) {
		return 0
	}
	return math.Max(0, env.Efficiency)
}

// LinearGrowth adds GrowthRate*Max*kind*efficiency per unit time.
type LinearGrowth struct{}

func (LinearGrowth) Delta(st State, env Environment, dt float64) float64 {
	return st.GrowthRate * st.Max * st.Kind.Factor() * efficiency(env) * dt
}

// DiminishingGrowth closes a fraction of the remaining gap each unit time.
type DiminishingGrowth struct{}

func (DiminishingGrowth) Delta(st State, env Environment, dt float64) float64 {
	k := math.Min(1, math.Max(0, st.GrowthRate*st.Kind.Factor()*efficiency(env)))
	return (st.Max - st.Current) * (1 - math.Pow(1-k, dt))
}

// LogisticGrowth is slow at both ends and fastest halfway. It seeds an
// empty entity with 1% of Max so that progress can start.
type LogisticGrowth struct{}

func (LogisticGrowth) Delta(st State, env Environment, dt float64) float64 {
	if st.Max <= 0 {
		return 0
	}
	p := math.Max(st.Current/st.Max, 0.01)
	return 4 * st.GrowthRate * st.Max * st.Kind.Factor() * efficiency(env) * p * (1 - p) * dt
}

// RatioStatus: Pending at 0, Completed at 1, Generating in between.
type RatioStatus struct{}

func (RatioStatus) Classify(r float64) Status {
	switch {
	case r >= 1:
		return StatusCompleted
	case r > 0:
		return StatusGenerating
	}
	return StatusPending
}
