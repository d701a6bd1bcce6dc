// Package graph is the weighted directed graph shared by the propagation and
// spatial mechanics.
//
// Nodes and edges iterate in insertion order so that events derived from a
// walk over the graph come out in a stable order. A bidirectional edge is
// stored once; Incoming and Outgoing report it in both directions and
// Directed explodes it into two plain edges.
package graph

import (
	"math"
	"sort"
)

type NodeID string

// Impassable is the cost used for a zero-rate edge.
const Impassable = math.MaxFloat64

type Edge struct {
	From          NodeID  `json:"from" yaml:"from"`
	To            NodeID  `json:"to" yaml:"to"`
	Weight        float64 `json:"weight" yaml:"weight"`
	Bidirectional bool    `json:"bidirectional,omitempty" yaml:"bidirectional,omitempty"`
}

// Reverse returns the edge pointing the other way.
func (e Edge) Reverse() Edge {
	return Edge{From: e.To, To: e.From, Weight: e.Weight, Bidirectional: e.Bidirectional}
}

type Graph struct {
	nodes []NodeID
	index map[NodeID]struct{}
	edges []Edge
}

func New() *Graph {
	return &Graph{index: map[NodeID]struct{}{}}
}

// FromEdges builds a graph from edge tuples. Endpoints are added as nodes in
// order of first appearance.
func FromEdges(edges []Edge) *Graph {
	g := New()
	for _, e := range edges {
		g.AddEdge(e)
	}
	return g
}

func (g *Graph) AddNode(id NodeID) bool {
	if _, ok := g.index[id]; ok {
		return false
	}
	g.index[id] = struct{}{}
	g.nodes = append(g.nodes, id)
	return true
}

// RemoveNode drops the node and every edge touching it.
func (g *Graph) RemoveNode(id NodeID) bool {
	if _, ok := g.index[id]; !ok {
		return false
	}
	delete(g.index, id)
	for i, n := range g.nodes {
		if n == id {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			break
		}
	}
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.From == id || e.To == id {
			continue
		}
		kept = append(kept, e)
	}
	g.edges = kept
	return true
}

func (g *Graph) HasNode(id NodeID) bool {
	_, ok := g.index[id]
	return ok
}

// AddEdge appends e, adding missing endpoints.
func (g *Graph) AddEdge(e Edge) {
	g.AddNode(e.From)
	g.AddNode(e.To)
	g.edges = append(g.edges, e)
}

// RemoveEdge removes the first edge from->to (or a bidirectional edge stored
// as to->from). It reports whether an edge was removed.
func (g *Graph) RemoveEdge(from, to NodeID) bool {
	for i, e := range g.edges {
		if (e.From == from && e.To == to) || (e.Bidirectional && e.From == to && e.To == from) {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			return true
		}
	}
	return false
}

// Edge returns the first edge leading from->to, oriented that way.
func (g *Graph) Edge(from, to NodeID) (Edge, bool) {
	for _, e := range g.edges {
		if e.From == from && e.To == to {
			return e, true
		}
		if e.Bidirectional && e.From == to && e.To == from {
			return e.Reverse(), true
		}
	}
	return Edge{}, false
}

// SetWeight rewrites the weight of the first edge matching from->to in place,
// keeping its position in the edge order.
func (g *Graph) SetWeight(from, to NodeID, w float64) bool {
	for i, e := range g.edges {
		if (e.From == from && e.To == to) || (e.Bidirectional && e.From == to && e.To == from) {
			g.edges[i].Weight = w
			return true
		}
	}
	return false
}

func (g *Graph) HasEdge(from, to NodeID) bool {
	_, ok := g.Edge(from, to)
	return ok
}

// Nodes returns the node ids in insertion order.
func (g *Graph) Nodes() []NodeID {
	out := make([]NodeID, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// SortedNodes returns the node ids ordered by id.
func (g *Graph) SortedNodes() []NodeID {
	out := g.Nodes()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (g *Graph) NodeCount() int { return len(g.nodes) }

// Edges returns the stored edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Incoming lists edges arriving at n, each oriented with To == n.
func (g *Graph) Incoming(n NodeID) []Edge {
	var out []Edge
	for _, e := range g.edges {
		switch {
		case e.To == n:
			out = append(out, e)
		case e.Bidirectional && e.From == n:
			out = append(out, e.Reverse())
		}
	}
	return out
}

// Outgoing lists edges leaving n, each oriented with From == n.
func (g *Graph) Outgoing(n NodeID) []Edge {
	var out []Edge
	for _, e := range g.edges {
		switch {
		case e.From == n:
			out = append(out, e)
		case e.Bidirectional && e.To == n:
			out = append(out, e.Reverse())
		}
	}
	return out
}

// Neighbors is the undirected view: every node sharing an edge with n, once,
// in edge order.
func (g *Graph) Neighbors(n NodeID) []NodeID {
	var out []NodeID
	seen := map[NodeID]struct{}{}
	add := func(id NodeID) {
		if id == n {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, e := range g.edges {
		if e.From == n {
			add(e.To)
		} else if e.To == n {
			add(e.From)
		}
	}
	return out
}

// Successors follows edge direction, honoring bidirectional edges.
func (g *Graph) Successors(n NodeID) []NodeID {
	var out []NodeID
	seen := map[NodeID]struct{}{}
	for _, e := range g.Outgoing(n) {
		if _, ok := seen[e.To]; ok {
			continue
		}
		seen[e.To] = struct{}{}
		out = append(out, e.To)
	}
	return out
}

// Directed returns a copy in which every bidirectional edge became two
// directed edges (forward first).
func (g *Graph) Directed() *Graph {
	out := New()
	for _, n := range g.nodes {
		out.AddNode(n)
	}
	for _, e := range g.edges {
		if e.Bidirectional {
			fwd := e
			fwd.Bidirectional = false
			out.AddEdge(fwd)
			out.AddEdge(fwd.Reverse())
			continue
		}
		out.AddEdge(e)
	}
	return out
}

// Clone returns a deep copy.
func (g *Graph) Clone() *Graph {
	out := New()
	for _, n := range g.nodes {
		out.AddNode(n)
	}
	out.edges = append(out.edges, g.edges...)
	return out
}
