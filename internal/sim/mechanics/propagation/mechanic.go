// Package propagation spreads infection pressure over a weighted graph.
//
// One step covers the whole graph. Infected nodes (severity > 0) are sources
// only; pressure is computed and recorded for clean nodes.
//
// # Ordering
//
// Nodes are visited in ascending id. Every PressureCalculated comes first,
// then the InitialInfection or PressureIncreased events in the same node order.
package propagation

import (
	"github.com/ynishi/issun-sub004/internal/sim/emit"
	"github.com/ynishi/issun-sub004/internal/sim/graph"
)

type Mechanic[P PressurePolicy, T TriggerPolicy] struct{}

type (
	Default    = Mechanic[LinearPressure, ThresholdTrigger]
	Stochastic = Mechanic[SaturatingPressure, ProbabilisticTrigger]
)

func (Mechanic[P, T]) Step(cfg Config, st *State, in Input, out emit.Emitter[Event]) {
	var (
		pressure P
		trigger  T
	)
	if in.Graph == nil || in.Graph.NodeCount() == 0 {
		st.NodePressures = map[graph.NodeID]float64{}
		return
	}

	type calc struct {
		node graph.NodeID
		p    float64
	}
	nodes := in.Graph.SortedNodes()
	clean := make([]calc, 0, len(nodes))
	for _, n := range nodes {
		if in.severity(n) > 0 {
			continue
		}
		p := pressure.Pressure(in.Graph, n, in, cfg)
		clean = append(clean, calc{node: n, p: p})
		if p > 0 {
			out.Emit(PressureCalculated{Node: n, Pressure: p})
		}
	}

	next := make(map[graph.NodeID]float64, len(clean))
	for _, c := range clean {
		old := st.NodePressures[c.node]
		if sev, ok := trigger.Trigger(c.p, in, cfg); ok {
			out.Emit(InitialInfection{Node: c.node, InitialSeverity: sev})
		} else if old != c.p {
			out.Emit(PressureIncreased{Node: c.node, Old: old, New: c.p})
		}
		if c.p > 0 {
			next[c.node] = c.p
		}
	}
	st.NodePressures = next
}
