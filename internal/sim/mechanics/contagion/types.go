package contagion

import (
	"github.com/ynishi/issun-sub004/internal/sim/duration"
	"github.com/ynishi/issun-sub004/internal/sim/graph"
)

type Phase string

const (
	PhasePlain      Phase = "PLAIN"
	PhaseIncubating Phase = "INCUBATING"
	PhaseActive     Phase = "ACTIVE"
	PhaseRecovered  Phase = "RECOVERED"
)

type Config struct {
	Incubation duration.Duration `json:"incubation" yaml:"incubation"`
	Active     duration.Duration `json:"active" yaml:"active"`
	Immunity   duration.Duration `json:"immunity" yaml:"immunity"`
	// ReinfectionEnabled lets Recovered return to Plain once Immunity runs
	// out. Without it Recovered is terminal.
	ReinfectionEnabled bool `json:"reinfection_enabled" yaml:"reinfection_enabled"`
}

func DefaultConfig() Config {
	return Config{
		Incubation: duration.Turns(3),
		Active:     duration.Turns(5),
		Immunity:   duration.Turns(10),
	}
}

// NodeState is one node's position in the state machine. Elapsed only grows
// while Phase stays the same.
type NodeState struct {
	Phase   Phase             `json:"phase" yaml:"phase"`
	Elapsed duration.Duration `json:"elapsed" yaml:"elapsed"`
	Total   duration.Duration `json:"total" yaml:"total"`
}

func enter(p Phase, total duration.Duration) NodeState {
	return NodeState{Phase: p, Elapsed: total.Zero(), Total: total}
}

// State holds every node that is not Plain.
type State struct {
	Nodes map[graph.NodeID]NodeState `json:"nodes" yaml:"nodes"`
}

func NewState() State { return State{Nodes: map[graph.NodeID]NodeState{}} }

func (s State) Phase(n graph.NodeID) Phase {
	if ns, ok := s.Nodes[n]; ok {
		return ns.Phase
	}
	return PhasePlain
}

// Count returns how many nodes sit in phase p. Plain is not counted.
func (s State) Count(p Phase) int {
	c := 0
	for _, ns := range s.Nodes {
		if ns.Phase == p {
			c++
		}
	}
	return c
}

type Input struct {
	TimeDelta duration.Duration `json:"time_delta"`
	// Infections lists nodes hit this tick, typically InitialInfection
	// events from propagation. Only Plain nodes react.
	Infections []graph.NodeID `json:"infections,omitempty"`
}

type Event interface {
	Kind() string
}

type StateChanged struct {
	Node graph.NodeID `json:"node"`
	From Phase        `json:"from"`
	To   Phase        `json:"to"`
}

func (StateChanged) Kind() string { return "CONTAGION_STATE_CHANGED" }
