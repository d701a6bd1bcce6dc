package propagation

import (
	"math"

	"github.com/ynishi/issun-sub004/internal/sim/graph"
)

// PressurePolicy computes the incoming pressure on n.
type PressurePolicy interface {
	Pressure(g *graph.Graph, n graph.NodeID, in Input, cfg Config) float64
}

// TriggerPolicy decides whether a clean node under pressure becomes infected
// and with what severity.
type TriggerPolicy interface {
	Trigger(pressure float64, in Input, cfg Config) (float64, bool)
}

// LinearPressure sums rate*severity/scale over incoming edges, clamped to
// [0, MaxPressure].
type LinearPressure struct{}

func (LinearPressure) Pressure(g *graph.Graph, n graph.NodeID, in Input, cfg Config) float64 {
	var p float64
	for _, e := range g.Incoming(n) {
		p += e.Weight * in.severity(e.From) / cfg.scale()
	}
	return clampPressure(p, cfg)
}

// SaturatingPressure treats each edge as an independent exposure:
// 1 - prod(1 - rate*severity/scale), clamped to [0, MaxPressure].
type SaturatingPressure struct{}

func (SaturatingPressure) Pressure(g *graph.Graph, n graph.NodeID, in Input, cfg Config) float64 {
	miss := 1.0
	for _, e := range g.Incoming(n) {
		q := math.Max(0, math.Min(1, e.Weight*in.severity(e.From)/cfg.scale()))
		miss *= 1 - q
	}
	return clampPressure(1-miss, cfg)
}

func clampPressure(p float64, cfg Config) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if cfg.MaxPressure > 0 && p > cfg.MaxPressure {
		return cfg.MaxPressure
	}
	return p
}

// ThresholdTrigger fires when pressure reaches TriggerThreshold. It never
// draws.
type ThresholdTrigger struct{}

func (ThresholdTrigger) Trigger(pressure float64, _ Input, cfg Config) (float64, bool) {
	if pressure > 0 && pressure >= cfg.TriggerThreshold {
		return cfg.InitialSeverity, true
	}
	return 0, false
}

// ProbabilisticTrigger takes one draw per clean node with positive pressure
// and fires when the draw is below the pressure. A nil source falls back to
// ThresholdTrigger.
type ProbabilisticTrigger struct{}

func (ProbabilisticTrigger) Trigger(pressure float64, in Input, cfg Config) (float64, bool) {
	if in.Rand == nil {
		return ThresholdTrigger{}.Trigger(pressure, in, cfg)
	}
	if pressure <= 0 {
		return 0, false
	}
	if in.Rand.Float64() < pressure {
		return cfg.InitialSeverity, true
	}
	return 0, false
}
