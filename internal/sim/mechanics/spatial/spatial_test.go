package spatial

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
	"github.com/ynishi/issun-sub004/internal/sim/graph"
)

func TestWalkAcrossGrid(t *testing.T) {
	m := NewGrid(3, 3)
	st := NewState(GridID(0, 0))
	st.Target = GridID(2, 2)
	var all []Event
	for i := 0; i < 6; i++ {
		buf := emit.NewBuffer[Event]()
		Default{}.Step(DefaultConfig(), &st, Input{Map: m}, buf)
		all = append(all, buf.Events()...)
	}
	var moves int
	for _, ev := range all {
		if mv, ok := ev.(Moved); ok {
			moves++
			if mv.Cost != 1 {
				t.Fatalf("grid steps cost 1, got %v", mv.Cost)
			}
		}
	}
	if moves != 4 {
		t.Fatalf("expected 4 moves, got %d: %v", moves, all)
	}
	if last := all[len(all)-1]; last != (Arrived{At: GridID(2, 2)}) {
		t.Fatalf("expected arrival last, got %v", last)
	}
	if st.Location != GridID(2, 2) || st.Target != "" {
		t.Fatalf("unexpected final state %+v", st)
	}
}

func TestStepsPerTick(t *testing.T) {
	m := NewGrid(5, 1)
	st := State{Location: GridID(0, 0), Target: GridID(4, 0)}
	cfg := DefaultConfig()
	cfg.StepsPerTick = 10
	buf := emit.NewBuffer[Event]()
	Default{}.Step(cfg, &st, Input{Map: m}, buf)
	if buf.Len() != 5 {
		t.Fatalf("expected 4 moves and an arrival, got %v", buf.Events())
	}
}

func TestPathfindersAgreeOnCost(t *testing.T) {
	m := NewGrid(6, 6)
	m.Block(GridID(2, 1))
	m.Block(GridID(2, 2))
	m.Block(GridID(2, 3))
	src, dst := GridID(0, 2), GridID(5, 2)

	bfs, ok1 := Mechanic[Grid4, Manhattan, BreadthFirst]{}.Route(DefaultConfig(), m, src, dst)
	ucs, ok2 := Mechanic[Grid4, Manhattan, UniformCost]{}.Route(DefaultConfig(), m, src, dst)
	ast, ok3 := Default{}.Route(DefaultConfig(), m, src, dst)
	if !ok1 || !ok2 || !ok3 {
		t.Fatalf("expected all searches to find a path")
	}
	for _, p := range [][]graph.NodeID{bfs, ucs, ast} {
		for _, n := range p {
			if n == GridID(2, 1) || n == GridID(2, 2) || n == GridID(2, 3) {
				t.Fatalf("path crosses a blocked node: %v", p)
			}
		}
	}
	cb, cu, ca := PathCost[Manhattan](m, bfs), PathCost[Manhattan](m, ucs), PathCost[Manhattan](m, ast)
	if cu != ca || cb != cu || cu != 9 {
		t.Fatalf("expected equal optimal cost 9, got bfs=%v ucs=%v astar=%v", cb, cu, ca)
	}
}

func TestRoadsMinimizeEdgeWeights(t *testing.T) {
	m := NewMap(graph.FromEdges([]graph.Edge{
		{From: "A", To: "B", Weight: 5},
		{From: "A", To: "C", Weight: 1},
		{From: "C", To: "B", Weight: 1},
	}))
	path, ok := Roads{}.Route(DefaultConfig(), m, "A", "B")
	if !ok {
		t.Fatalf("expected a route")
	}
	if diff := cmp.Diff([]graph.NodeID{"A", "C", "B"}, path); diff != "" {
		t.Fatalf("route mismatch:\n%s", diff)
	}
	if c := PathCost[EdgeCostSum](m, path); c != 2 {
		t.Fatalf("expected cost 2, got %v", c)
	}
	if _, ok := Roads{}.Route(DefaultConfig(), m, "B", "A"); ok {
		t.Fatalf("directed edges must not be walked backwards")
	}
}

func TestBlockedEvents(t *testing.T) {
	m := NewMap(graph.FromEdges([]graph.Edge{{From: "A", To: "B", Weight: 1}}))
	m.Capacity["B"] = 1

	st := State{Location: "A", Target: "B"}
	buf := emit.NewBuffer[Event]()
	Roads{}.Step(DefaultConfig(), &st, Input{Map: m, Occupancy: map[graph.NodeID]int{"B": 1}}, buf)
	if diff := cmp.Diff([]Event{PathBlocked{From: "A", To: "B", Reason: BlockedCapacity}}, buf.Events()); diff != "" {
		t.Fatalf("capacity mismatch:\n%s", diff)
	}
	if st.Location != "A" {
		t.Fatalf("blocked mover must stay put")
	}

	back := State{Location: "B", Target: "A"}
	buf.Reset()
	Roads{}.Step(DefaultConfig(), &back, Input{Map: m}, buf)
	if diff := cmp.Diff([]Event{PathBlocked{From: "B", To: "A", Reason: BlockedNoPath}}, buf.Events()); diff != "" {
		t.Fatalf("no path mismatch:\n%s", diff)
	}

	lost := State{Location: "A", Target: "Z"}
	buf.Reset()
	Roads{}.Step(DefaultConfig(), &lost, Input{Map: m}, buf)
	if diff := cmp.Diff([]Event{PathBlocked{From: "A", To: "Z", Reason: BlockedUnknownNode}}, buf.Events()); diff != "" {
		t.Fatalf("unknown node mismatch:\n%s", diff)
	}
}

func TestTopologies(t *testing.T) {
	m := NewGrid(3, 3)
	center := GridID(1, 1)
	if n := len((Grid4{}).Neighbors(m, center, Config{})); n != 4 {
		t.Fatalf("grid4 center: expected 4, got %d", n)
	}
	if n := len((Grid8{}).Neighbors(m, center, Config{})); n != 8 {
		t.Fatalf("grid8 center: expected 8, got %d", n)
	}
	if n := len((Grid8{}).Neighbors(m, GridID(0, 0), Config{})); n != 3 {
		t.Fatalf("grid8 corner: expected 3, got %d", n)
	}
	got := (RadialWithinRadius{}).Neighbors(m, GridID(0, 0), Config{Radius: 1.5})
	want := []graph.NodeID{GridID(0, 1), GridID(1, 0), GridID(1, 1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("radial mismatch:\n%s", diff)
	}
}

func TestEuclideanEstimateAdmissible(t *testing.T) {
	m := NewGrid(4, 4)
	for _, a := range m.Graph.Nodes() {
		for _, b := range m.Graph.Nodes() {
			path, ok := Mechanic[Grid8, Euclidean, UniformCost]{}.Route(DefaultConfig(), m, a, b)
			if !ok {
				t.Fatalf("%s->%s unreachable", a, b)
			}
			if est := (Euclidean{}).Estimate(m, a, b); est > PathCost[Euclidean](m, path)+1e-9 {
				t.Fatalf("estimate %v exceeds cost for %s->%s", est, a, b)
			}
		}
	}
	if d := (Euclidean{}).Cost(m, GridID(0, 0), GridID(1, 1)); math.Abs(d-math.Sqrt2) > 1e-12 {
		t.Fatalf("diagonal step: expected sqrt2, got %v", d)
	}
}

func TestSpecRoundTrip(t *testing.T) {
	m := NewGrid(2, 2)
	m.Capacity[GridID(1, 1)] = 3
	back := FromSpec(m.Spec())
	if diff := cmp.Diff(m.Spec(), back.Spec()); diff != "" {
		t.Fatalf("spec round trip mismatch:\n%s", diff)
	}
	if id, ok := back.At(Position{X: 1, Y: 0}); !ok || id != GridID(1, 0) {
		t.Fatalf("position index not rebuilt")
	}
}
