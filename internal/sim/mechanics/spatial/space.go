package spatial

import (
	"fmt"
	"math"

	"github.com/ynishi/issun-sub004/internal/sim/graph"
)

type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Map is the spatial substrate: a cost-weighted graph plus optional node
// positions and capacities. It is read-only while a step is running.
type Map struct {
	Graph    *graph.Graph
	Capacity map[graph.NodeID]int

	positions map[graph.NodeID]Position
	at        map[Position]graph.NodeID
}

func NewMap(g *graph.Graph) *Map {
	if g == nil {
		g = graph.New()
	}
	return &Map{
		Graph:     g,
		Capacity:  map[graph.NodeID]int{},
		positions: map[graph.NodeID]Position{},
		at:        map[Position]graph.NodeID{},
	}
}

// SetPosition places n at p, adding n to the graph if needed.
func (m *Map) SetPosition(n graph.NodeID, p Position) {
	m.Graph.AddNode(n)
	if old, ok := m.positions[n]; ok {
		delete(m.at, old)
	}
	m.positions[n] = p
	m.at[p] = n
}

func (m *Map) Position(n graph.NodeID) (Position, bool) {
	p, ok := m.positions[n]
	return p, ok
}

// At returns the node placed exactly at p.
func (m *Map) At(p Position) (graph.NodeID, bool) {
	n, ok := m.at[p]
	return n, ok
}

// Positions returns a copy of the position table.
func (m *Map) Positions() map[graph.NodeID]Position {
	out := make(map[graph.NodeID]Position, len(m.positions))
	for n, p := range m.positions {
		out[n] = p
	}
	return out
}

// Free reports whether n can take one more occupant given the host's
// occupancy counts. Nodes without a positive capacity are unbounded.
func (m *Map) Free(n graph.NodeID, occupancy map[graph.NodeID]int) bool {
	c := m.Capacity[n]
	return c <= 0 || occupancy[n] < c
}

func GridID(x, y int) graph.NodeID { return graph.NodeID(fmt.Sprintf("%d,%d", x, y)) }

// NewGrid builds a w*h grid with unit-cost bidirectional edges between
// 4-neighbors. Node ids are "x,y"; nodes are added row by row.
func NewGrid(w, h int) *Map {
	m := NewMap(graph.New())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetPosition(GridID(x, y), Position{X: float64(x), Y: float64(y)})
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x+1 < w {
				m.Graph.AddEdge(graph.Edge{From: GridID(x, y), To: GridID(x+1, y), Weight: 1, Bidirectional: true})
			}
			if y+1 < h {
				m.Graph.AddEdge(graph.Edge{From: GridID(x, y), To: GridID(x, y+1), Weight: 1, Bidirectional: true})
			}
		}
	}
	return m
}

// Block makes every edge touching n impassable without removing it.
func (m *Map) Block(n graph.NodeID) {
	for _, e := range m.Graph.Edges() {
		if e.From == n || e.To == n {
			m.Graph.SetWeight(e.From, e.To, graph.Impassable)
		}
	}
}

// Spec is the plain-data form of a Map for scenario files.
type Spec struct {
	Edges     []graph.Edge              `json:"edges" yaml:"edges"`
	Positions map[graph.NodeID]Position `json:"positions,omitempty" yaml:"positions,omitempty"`
	Capacity  map[graph.NodeID]int      `json:"capacity,omitempty" yaml:"capacity,omitempty"`
}

func FromSpec(s Spec) *Map {
	m := NewMap(graph.FromEdges(s.Edges))
	for n, p := range s.Positions {
		m.SetPosition(n, p)
	}
	for n, c := range s.Capacity {
		m.Capacity[n] = c
	}
	return m
}

func (m *Map) Spec() Spec {
	caps := make(map[graph.NodeID]int, len(m.Capacity))
	for n, c := range m.Capacity {
		caps[n] = c
	}
	return Spec{Edges: m.Graph.Edges(), Positions: m.Positions(), Capacity: caps}
}

func passable(w float64) bool { return !math.IsNaN(w) && w < graph.Impassable }
