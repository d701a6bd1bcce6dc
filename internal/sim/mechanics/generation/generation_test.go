package generation

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
	"github.com/ynishi/issun-sub004/internal/sim/orchestrate"
)

func TestLinearProgressToCompletion(t *testing.T) {
	st := NewState(10, 0.4, KindConstruction)
	cfg := DefaultConfig()
	in := Input{TimeDelta: 1, Environment: NeutralEnvironment()}

	buf := emit.NewBuffer[Event]()
	Default{}.Step(cfg, &st, in, buf)
	want := []Event{
		ProgressApplied{Amount: 4, Current: 4},
		StatusChanged{Old: StatusPending, New: StatusGenerating},
	}
	if diff := cmp.Diff(want, buf.Events()); diff != "" {
		t.Fatalf("events mismatch:\n%s", diff)
	}

	buf.Reset()
	Default{}.Step(cfg, &st, in, buf)
	Default{}.Step(cfg, &st, in, buf)
	want = []Event{
		ProgressApplied{Amount: 4, Current: 8},
		ProgressApplied{Amount: 2, Current: 10},
		StatusChanged{Old: StatusGenerating, New: StatusCompleted},
		EntityCompleted{},
	}
	if diff := cmp.Diff(want, buf.Events()); diff != "" {
		t.Fatalf("events mismatch:\n%s", diff)
	}
	if st.Current != st.Max {
		t.Fatalf("expected completed at max, got %+v", st)
	}
}

func TestStalledWithoutEfficiency(t *testing.T) {
	st := NewState(10, 1, KindCrafting)
	buf := emit.NewBuffer[Event]()
	Default{}.Step(DefaultConfig(), &st, Input{TimeDelta: 5, Environment: Environment{Efficiency: -3}}, buf)
	if buf.Len() != 0 || st.Current != 0 {
		t.Fatalf("expected no progress, got %v", buf.Events())
	}
}

func TestDiminishingNeverOvershoots(t *testing.T) {
	st := NewState(100, 0.5, KindResearch)
	in := Input{TimeDelta: 1, Environment: NeutralEnvironment()}
	prev := 0.0
	for i := 0; i < 200; i++ {
		Research{}.Step(DefaultConfig(), &st, in, emit.Discard[Event]{})
		if st.Current < prev || st.Current > st.Max {
			t.Fatalf("progress went backwards or past max: %v -> %v", prev, st.Current)
		}
		prev = st.Current
	}
	if st.Status != StatusCompleted {
		t.Fatalf("expected eventual completion, got %+v", st)
	}
}

func TestLogisticStartsFromEmpty(t *testing.T) {
	st := NewState(100, 0.5, KindCultivation)
	Colony{}.Step(DefaultConfig(), &st, Input{TimeDelta: 1, Environment: NeutralEnvironment()}, emit.Discard[Event]{})
	if st.Current <= 0 {
		t.Fatalf("logistic growth should leave zero")
	}
}

func TestSystemCompletesInOrder(t *testing.T) {
	ents := make([]orchestrate.Entity[State], 6)
	for i := range ents {
		ents[i] = orchestrate.Entity[State]{ID: fmt.Sprintf("site-%d", i), State: NewState(10, float64(i+1)*0.1, KindConstruction)}
	}
	sys := NewSystem[LinearGrowth, RatioStatus](DefaultConfig(), nil)
	in := func(*orchestrate.Entity[State]) Input { return Input{TimeDelta: 1, Environment: NeutralEnvironment()} }
	for i := 0; i < 4; i++ {
		sys.Update(ents, in, nil)
	}
	// Rates 0.3 and up finish within four ticks.
	want := []string{"site-4", "site-5", "site-3", "site-2"}
	if diff := cmp.Diff(want, sys.Completed()); diff != "" {
		t.Fatalf("completion order mismatch:\n%s", diff)
	}
	m := sys.Metrics()
	if m.EntitiesProcessed != 24 || m.EntitiesDestroyed != 4 {
		t.Fatalf("metrics mismatch: %+v", m)
	}
	// site-0 and site-1 add 4 and 8; each finished site adds 10.
	if math.Abs(m.TotalProgressApplied-(4+8+40)) > 1e-9 {
		t.Fatalf("expected total progress 52, got %v", m.TotalProgressApplied)
	}
	left := Prune(ents)
	if len(left) != 2 || left[0].ID != "site-0" || left[1].ID != "site-1" {
		t.Fatalf("prune mismatch: %+v", left)
	}
}
