package spatial

import "github.com/ynishi/issun-sub004/internal/sim/graph"

type Config struct {
	// Radius bounds RadialWithinRadius.
	Radius float64 `json:"radius" yaml:"radius"`
	// StepsPerTick is how many nodes a mover advances per step; < 1 means 1.
	StepsPerTick int `json:"steps_per_tick" yaml:"steps_per_tick"`
	// RespectCapacity refuses steps into nodes at capacity.
	RespectCapacity bool `json:"respect_capacity" yaml:"respect_capacity"`
}

func DefaultConfig() Config {
	return Config{Radius: 1.5, StepsPerTick: 1, RespectCapacity: true}
}

// State is one mover. An empty Target means idle.
type State struct {
	Location graph.NodeID `json:"location" yaml:"location"`
	Target   graph.NodeID `json:"target,omitempty" yaml:"target,omitempty"`
}

func NewState(at graph.NodeID) State { return State{Location: at} }

type Input struct {
	Map *Map `json:"-"`
	// Occupancy is the host's current count of movers per node.
	Occupancy map[graph.NodeID]int `json:"occupancy,omitempty"`
}

type BlockReason string

const (
	BlockedNoPath      BlockReason = "NO_PATH"
	BlockedCapacity    BlockReason = "CAPACITY"
	BlockedUnknownNode BlockReason = "UNKNOWN_NODE"
)

type Event interface {
	Kind() string
}

type Moved struct {
	From graph.NodeID `json:"from"`
	To   graph.NodeID `json:"to"`
	Cost float64      `json:"cost"`
}

type Arrived struct {
	At graph.NodeID `json:"at"`
}

type PathBlocked struct {
	From   graph.NodeID `json:"from"`
	To     graph.NodeID `json:"to"`
	Reason BlockReason  `json:"reason"`
}

func (Moved) Kind() string       { return "MOVED" }
func (Arrived) Kind() string     { return "ARRIVED" }
func (PathBlocked) Kind() string { return "PATH_BLOCKED" }
