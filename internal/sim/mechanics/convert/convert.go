// Package convert maps between the rate-weighted graphs used by propagation
// and the cost-weighted maps used by spatial movement.
//
// cost = 1/rate, with a zero rate mapping to graph.Impassable and a zero
// cost mapping to full transmission (rate 1). Node set and edge order are
// kept; positions and capacities do not survive a trip through propagation.
package convert

import (
	"math"

	"github.com/ynishi/issun-sub004/internal/sim/graph"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/spatial"
)

// RateToCost converts a transmission rate to a movement cost.
func RateToCost(rate float64) float64 {
	if rate <= 0 || math.IsNaN(rate) {
		return graph.Impassable
	}
	return 1 / rate
}

// CostToRate converts a movement cost to a transmission rate.
func CostToRate(cost float64) float64 {
	switch {
	case math.IsNaN(cost) || cost >= graph.Impassable:
		return 0
	case cost <= 0:
		return 1
	}
	return 1 / cost
}

// PropagationToSpatial keeps every node and edge of g, reweighted as costs.
func PropagationToSpatial(g *graph.Graph) *spatial.Map {
	out := graph.New()
	for _, n := range g.Nodes() {
		out.AddNode(n)
	}
	for _, e := range g.Edges() {
		e.Weight = RateToCost(e.Weight)
		out.AddEdge(e)
	}
	return spatial.NewMap(out)
}

// SpatialToPropagation returns a plain directed rate graph: bidirectional
// edges become two edges, forward first.
func SpatialToPropagation(m *spatial.Map) *graph.Graph {
	directed := m.Graph.Directed()
	out := graph.New()
	for _, n := range directed.Nodes() {
		out.AddNode(n)
	}
	for _, e := range directed.Edges() {
		e.Weight = CostToRate(e.Weight)
		out.AddEdge(e)
	}
	return out
}
