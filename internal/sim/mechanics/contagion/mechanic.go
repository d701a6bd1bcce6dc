// Package contagion runs the per-node infection state machine
// Plain -> Incubating -> Active -> Recovered (-> Plain).
//
// A node infected this step enters Incubating with zero elapsed and does not
// age until the next step. Every other non-plain node first ages by the time
// delta, then moves on when its phase total has expired. A node makes at
// most one transition per step. A time delta whose unit differs from the
// phase total does not age the node.
package contagion

import (
	"slices"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
	"github.com/ynishi/issun-sub004/internal/sim/graph"
)

type Mechanic struct{}

// Step visits nodes in ascending id order.
func (Mechanic) Step(cfg Config, st *State, in Input, out emit.Emitter[Event]) {
	if st.Nodes == nil {
		st.Nodes = map[graph.NodeID]NodeState{}
	}
	infected := make(map[graph.NodeID]struct{}, len(in.Infections))
	ids := make([]graph.NodeID, 0, len(st.Nodes)+len(in.Infections))
	for n := range st.Nodes {
		ids = append(ids, n)
	}
	for _, n := range in.Infections {
		if _, ok := infected[n]; ok {
			continue
		}
		infected[n] = struct{}{}
		if _, ok := st.Nodes[n]; !ok {
			ids = append(ids, n)
		}
	}
	slices.Sort(ids)

	for _, n := range ids {
		ns, tracked := st.Nodes[n]
		if !tracked || ns.Phase == PhasePlain {
			if _, hit := infected[n]; hit {
				st.Nodes[n] = enter(PhaseIncubating, cfg.Incubation)
				out.Emit(StateChanged{Node: n, From: PhasePlain, To: PhaseIncubating})
			} else if tracked {
				delete(st.Nodes, n)
			}
			continue
		}

		if aged, ok := ns.Elapsed.Add(in.TimeDelta); ok {
			ns.Elapsed = aged
		}
		if !ns.Total.IsExpired(ns.Elapsed) {
			st.Nodes[n] = ns
			continue
		}

		from := ns.Phase
		switch from {
		case PhaseIncubating:
			ns = enter(PhaseActive, cfg.Active)
		case PhaseActive:
			ns = enter(PhaseRecovered, cfg.Immunity)
		case PhaseRecovered:
			if !cfg.ReinfectionEnabled {
				st.Nodes[n] = ns
				continue
			}
			delete(st.Nodes, n)
			out.Emit(StateChanged{Node: n, From: from, To: PhasePlain})
			continue
		default:
			continue
		}
		st.Nodes[n] = ns
		out.Emit(StateChanged{Node: n, From: from, To: ns.Phase})
	}
}
