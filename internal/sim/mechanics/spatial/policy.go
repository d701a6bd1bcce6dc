package spatial

import (
	"math"
	"slices"

	"github.com/ynishi/issun-sub004/internal/sim/graph"
)

// TopologyPolicy lists the nodes reachable in one step from n.
type TopologyPolicy interface {
	Neighbors(m *Map, n graph.NodeID, cfg Config) []graph.NodeID
}

// DistancePolicy prices a single step between neighbors (Cost) and gives a
// lower bound on the remaining distance to a goal (Estimate). Estimate must
// never exceed the true path cost so that AStar stays optimal.
type DistancePolicy interface {
	Cost(m *Map, a, b graph.NodeID) float64
	Estimate(m *Map, a, b graph.NodeID) float64
}

// PathfindingPolicy returns the node sequence from src to dst, both
// included. ok is false when dst cannot be reached.
type PathfindingPolicy interface {
	ShortestPath(src, dst graph.NodeID, s Search) (path []graph.NodeID, ok bool)
}

// Search bundles the topology and distance policies for a path query.
type Search struct {
	Neighbors func(graph.NodeID) []graph.NodeID
	Cost      func(a, b graph.NodeID) float64
	Estimate  func(a, b graph.NodeID) float64
}

func gridNeighbors(m *Map, n graph.NodeID, diagonal bool) []graph.NodeID {
	p, ok := m.Position(n)
	if !ok {
		return nil
	}
	offsets := [][2]float64{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	if diagonal {
		offsets = append(offsets, [2]float64{1, -1}, [2]float64{1, 1}, [2]float64{-1, 1}, [2]float64{-1, -1})
	}
	var out []graph.NodeID
	for _, o := range offsets {
		if id, ok := m.At(Position{X: p.X + o[0], Y: p.Y + o[1]}); ok {
			out = append(out, id)
		}
	}
	return out
}

// Grid4 steps to the nodes placed one unit up, right, down or left.
type Grid4 struct{}

func (Grid4) Neighbors(m *Map, n graph.NodeID, _ Config) []graph.NodeID {
	return gridNeighbors(m, n, false)
}

// Grid8 adds the four diagonals to Grid4.
type Grid8 struct{}

func (Grid8) Neighbors(m *Map, n graph.NodeID, _ Config) []graph.NodeID {
	return gridNeighbors(m, n, true)
}

// GraphAdjacency follows graph edges in their direction.
type GraphAdjacency struct{}

func (GraphAdjacency) Neighbors(m *Map, n graph.NodeID, _ Config) []graph.NodeID {
	return m.Graph.Successors(n)
}

// RadialWithinRadius reaches every positioned node within Config.Radius,
// nearest first with ties broken by id.
type RadialWithinRadius struct{}

func (RadialWithinRadius) Neighbors(m *Map, n graph.NodeID, cfg Config) []graph.NodeID {
	p, ok := m.Position(n)
	if !ok {
		return nil
	}
	type cand struct {
		id graph.NodeID
		d  float64
	}
	var cs []cand
	for _, id := range m.Graph.Nodes() {
		q, ok := m.Position(id)
		if !ok || id == n {
			continue
		}
		if d := euclid(p, q); d <= cfg.Radius {
			cs = append(cs, cand{id, d})
		}
	}
	slices.SortFunc(cs, func(a, b cand) int {
		switch {
		case a.d < b.d:
			return -1
		case a.d > b.d:
			return 1
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	out := make([]graph.NodeID, len(cs))
	for i, c := range cs {
		out[i] = c.id
	}
	return out
}

func euclid(a, b Position) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }

func positions(m *Map, a, b graph.NodeID) (Position, Position, bool) {
	p, ok1 := m.Position(a)
	q, ok2 := m.Position(b)
	return p, q, ok1 && ok2
}

// edgeGate is false when the graph holds an impassable a->b edge.
func edgeGate(m *Map, a, b graph.NodeID) bool {
	if e, ok := m.Graph.Edge(a, b); ok && !passable(e.Weight) {
		return false
	}
	return true
}

// Manhattan is |dx|+|dy| between positions. Unpositioned pairs cost 1 and
// estimate 0.
type Manhattan struct{}

func (Manhattan) Cost(m *Map, a, b graph.NodeID) float64 {
	if !edgeGate(m, a, b) {
		return graph.Impassable
	}
	p, q, ok := positions(m, a, b)
	if !ok {
		return 1
	}
	return math.Abs(p.X-q.X) + math.Abs(p.Y-q.Y)
}

func (Manhattan) Estimate(m *Map, a, b graph.NodeID) float64 {
	p, q, ok := positions(m, a, b)
	if !ok {
		return 0
	}
	return math.Abs(p.X-q.X) + math.Abs(p.Y-q.Y)
}

// Euclidean is the straight-line distance between positions.
type Euclidean struct{}

func (Euclidean) Cost(m *Map, a, b graph.NodeID) float64 {
	if !edgeGate(m, a, b) {
		return graph.Impassable
	}
	p, q, ok := positions(m, a, b)
	if !ok {
		return 1
	}
	return euclid(p, q)
}

func (Euclidean) Estimate(m *Map, a, b graph.NodeID) float64 {
	p, q, ok := positions(m, a, b)
	if !ok {
		return 0
	}
	return euclid(p, q)
}

// EdgeCostSum prices a step by its edge weight, so a path costs the sum of
// its edges. A step with no edge is impassable. It has no geometric
// estimate, which turns AStar into UniformCost.
type EdgeCostSum struct{}

func (EdgeCostSum) Cost(m *Map, a, b graph.NodeID) float64 {
	e, ok := m.Graph.Edge(a, b)
	if !ok || e.Weight < 0 {
		return graph.Impassable
	}
	return e.Weight
}

func (EdgeCostSum) Estimate(*Map, graph.NodeID, graph.NodeID) float64 { return 0 }

// PathCost sums step costs along path under d. An impassable step makes the
// whole path Impassable.
func PathCost[D DistancePolicy](m *Map, path []graph.NodeID) float64 {
	var d D
	var total float64
	for i := 1; i < len(path); i++ {
		c := d.Cost(m, path[i-1], path[i])
		if !passable(c) {
			return graph.Impassable
		}
		total += c
	}
	return total
}
