package outbreak

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ynishi/issun-sub004/internal/sim/duration"
	"github.com/ynishi/issun-sub004/internal/sim/emit"
	"github.com/ynishi/issun-sub004/internal/sim/graph"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/contagion"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/propagation"
)

func chain() *graph.Graph {
	return graph.FromEdges([]graph.Edge{
		{From: "A", To: "B", Weight: 0.5},
		{From: "B", To: "C", Weight: 0.5},
	})
}

func newOutbreak() *Default {
	cfg := DefaultConfig()
	cfg.Contagion.Incubation = duration.Turns(1)
	return New[propagation.LinearPressure, propagation.ThresholdTrigger](cfg, chain(), nil)
}

func TestSeedThenSpread(t *testing.T) {
	o := newOutbreak()
	buf := emit.NewBuffer[Event]()
	o.Seed(buf, "A", "ghost")
	if diff := cmp.Diff([]Event{contagion.StateChanged{Node: "A", From: contagion.PhasePlain, To: contagion.PhaseIncubating}}, buf.Events()); diff != "" {
		t.Fatalf("seed mismatch:\n%s", diff)
	}

	buf.Reset()
	sum := o.Tick(duration.Turns(1), nil, buf)
	want := []Event{
		propagation.PressureCalculated{Node: "B", Pressure: 0.05},
		propagation.PressureIncreased{Node: "B", Old: 0, New: 0.05},
		contagion.StateChanged{Node: "A", From: contagion.PhaseIncubating, To: contagion.PhaseActive},
	}
	if diff := cmp.Diff(want, buf.Events(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("tick 1 mismatch:\n%s", diff)
	}
	if len(sum.Infected) != 0 || sum.Phases[contagion.PhaseActive] != 1 {
		t.Fatalf("tick 1 summary: %+v", sum)
	}

	buf.Reset()
	sum = o.Tick(duration.Turns(1), nil, buf)
	want = []Event{
		propagation.PressureCalculated{Node: "B", Pressure: 0.5},
		propagation.InitialInfection{Node: "B", InitialSeverity: 20},
		contagion.StateChanged{Node: "B", From: contagion.PhasePlain, To: contagion.PhaseIncubating},
	}
	if diff := cmp.Diff(want, buf.Events(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("tick 2 mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]graph.NodeID{"B"}, sum.Infected); diff != "" {
		t.Fatalf("infected mismatch:\n%s", diff)
	}
	if sum.Tick != 2 || o.State.Contagion.Phase("B") != contagion.PhaseIncubating {
		t.Fatalf("unexpected state after tick 2: %+v", o.State)
	}
}

func TestNilEmitterStillAdvances(t *testing.T) {
	o := newOutbreak()
	o.Seed(nil, "A")
	for range 3 {
		o.Tick(duration.Turns(1), nil, nil)
	}
	if o.State.Contagion.Phase("B") == contagion.PhasePlain {
		t.Fatalf("B should have been reached by tick 3")
	}
}

func TestSeverities(t *testing.T) {
	o := newOutbreak()
	o.Seed(nil, "A", "C")
	got := o.Severities()
	want := map[graph.NodeID]float64{"A": 10, "C": 10}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("severities mismatch:\n%s", diff)
	}
}
