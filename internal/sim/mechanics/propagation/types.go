package propagation

import (
	"github.com/ynishi/issun-sub004/internal/sim/graph"
	"github.com/ynishi/issun-sub004/internal/sim/rng"
)

type Config struct {
	// TriggerThreshold is the pressure at which a clean node gets infected.
	TriggerThreshold float64 `json:"trigger_threshold" yaml:"trigger_threshold"`
	// InitialSeverity is reported by InitialInfection.
	InitialSeverity float64 `json:"initial_severity" yaml:"initial_severity"`
	MaxPressure     float64 `json:"max_pressure" yaml:"max_pressure"`
	// SeverityScale maps a source severity to a [0, 1] weight:
	// pressure contribution = rate * severity / SeverityScale.
	SeverityScale float64 `json:"severity_scale" yaml:"severity_scale"`
}

func DefaultConfig() Config {
	return Config{
		TriggerThreshold: 0.1,
		InitialSeverity:  20,
		MaxPressure:      1.0,
		SeverityScale:    100,
	}
}

func (c Config) scale() float64 {
	if c.SeverityScale <= 0 {
		return 1
	}
	return c.SeverityScale
}

// State records the pressure on every clean node that had some at the last
// step. Missing nodes are at 0.
type State struct {
	NodePressures map[graph.NodeID]float64 `json:"node_pressures" yaml:"node_pressures"`
}

func NewState() State {
	return State{NodePressures: map[graph.NodeID]float64{}}
}

func (s State) Pressure(n graph.NodeID) float64 { return s.NodePressures[n] }

// Input is the host's view of the world for this tick. Graph is read-only
// for the duration of the step and is not serialized.
type Input struct {
	Severities map[graph.NodeID]float64 `json:"severities"`
	Graph      *graph.Graph             `json:"-"`
	// Rand is read by ProbabilisticTrigger.
	Rand rng.Source `json:"-"`
}

func (in Input) severity(n graph.NodeID) float64 {
	return in.Severities[n]
}

type Event interface {
	Kind() string
}

type PressureCalculated struct {
	Node     graph.NodeID `json:"node"`
	Pressure float64      `json:"pressure"`
}

type InitialInfection struct {
	Node            graph.NodeID `json:"node"`
	InitialSeverity float64      `json:"initial_severity"`
}

// PressureIncreased reports a clean node whose recorded pressure moved
// without triggering. Old and New carry the direction.
type PressureIncreased struct {
	Node graph.NodeID `json:"node"`
	Old  float64      `json:"old"`
	New  float64      `json:"new"`
}

func (PressureCalculated) Kind() string { return "PRESSURE_CALCULATED" }
func (InitialInfection) Kind() string   { return "INITIAL_INFECTION" }
func (PressureIncreased) Kind() string  { return "PRESSURE_INCREASED" }

// PressureChanged is the older name of PressureIncreased.
type PressureChanged = PressureIncreased
