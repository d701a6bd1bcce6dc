// Package spatial moves entities across a graph-shaped map. Topology decides
// what one step can reach, distance prices it and pathfinding picks the
// route.
package spatial

import (
	"github.com/ynishi/issun-sub004/internal/sim/emit"
	"github.com/ynishi/issun-sub004/internal/sim/graph"
)

type Mechanic[T TopologyPolicy, D DistancePolicy, P PathfindingPolicy] struct{}

type (
	// Default walks a 4-way grid with A* over Manhattan distance.
	Default = Mechanic[Grid4, Manhattan, AStar]
	// Roads follows graph edges and minimizes their summed weights.
	Roads = Mechanic[GraphAdjacency, EdgeCostSum, UniformCost]
)

// Route returns the path the mechanic would take, without moving.
func (Mechanic[T, D, P]) Route(cfg Config, m *Map, src, dst graph.NodeID) ([]graph.NodeID, bool) {
	var (
		topo T
		dist D
		pf   P
	)
	if m == nil || !m.Graph.HasNode(src) || !m.Graph.HasNode(dst) {
		return nil, false
	}
	return pf.ShortestPath(src, dst, Search{
		Neighbors: func(n graph.NodeID) []graph.NodeID { return topo.Neighbors(m, n, cfg) },
		Cost:      func(a, b graph.NodeID) float64 { return dist.Cost(m, a, b) },
		Estimate:  func(a, b graph.NodeID) float64 { return dist.Estimate(m, a, b) },
	})
}

// Step advances the mover up to StepsPerTick nodes toward Target. It emits
// Moved per step, Arrived on reaching Target (which clears it), or
// PathBlocked when no route exists or the next node is full.
func (mech Mechanic[T, D, P]) Step(cfg Config, st *State, in Input, out emit.Emitter[Event]) {
	var dist D
	if st.Target == "" {
		return
	}
	if st.Location == st.Target {
		st.Target = ""
		out.Emit(Arrived{At: st.Location})
		return
	}
	if in.Map == nil || !in.Map.Graph.HasNode(st.Location) || !in.Map.Graph.HasNode(st.Target) {
		out.Emit(PathBlocked{From: st.Location, To: st.Target, Reason: BlockedUnknownNode})
		return
	}
	path, ok := mech.Route(cfg, in.Map, st.Location, st.Target)
	if !ok {
		out.Emit(PathBlocked{From: st.Location, To: st.Target, Reason: BlockedNoPath})
		return
	}

	steps := max(cfg.StepsPerTick, 1)
	for i := 1; i < len(path) && i <= steps; i++ {
		next := path[i]
		if cfg.RespectCapacity && !in.Map.Free(next, in.Occupancy) {
			out.Emit(PathBlocked{From: st.Location, To: next, Reason: BlockedCapacity})
			return
		}
		out.Emit(Moved{From: st.Location, To: next, Cost: dist.Cost(in.Map, st.Location, next)})
		st.Location = next
	}
	if st.Location == st.Target {
		st.Target = ""
		out.Emit(Arrived{At: st.Location})
	}
}
