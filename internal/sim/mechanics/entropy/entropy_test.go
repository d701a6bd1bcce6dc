package entropy

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
	"github.com/ynishi/issun-sub004/internal/sim/orchestrate"
)

func mixed(n int) []orchestrate.Entity[State] {
	out := make([]orchestrate.Entity[State], n)
	for i := range out {
		st := NewState(100, 0.01, MaterialMetal)
		if i%2 == 1 {
			st = NewState(100, 0.02, MaterialOrganic)
		}
		out[i] = orchestrate.Entity[State]{ID: fmt.Sprintf("item-%d", i), State: st}
	}
	return out
}

func TestBulkUpdateByMaterial(t *testing.T) {
	sys := NewSystem[LinearDecay, RatioStatus](DefaultConfig(), nil)
	ents := mixed(10)
	sys.Update(ents, Input{TimeDelta: 1}, nil)

	if got := sys.Metrics().EntitiesProcessed; got != 10 {
		t.Fatalf("expected 10 entities processed, got %d", got)
	}
	metal, organic := ents[0].State.Current, ents[1].State.Current
	if !(organic < metal) {
		t.Fatalf("organic should wear faster: metal=%v organic=%v", metal, organic)
	}
	if metal != 99 || organic != 96 {
		t.Fatalf("unexpected durability metal=%v organic=%v", metal, organic)
	}
	if len(sys.Destroyed()) != 0 {
		t.Fatalf("nothing should be destroyed after one tick")
	}
}

func TestDestroyedInIterationOrder(t *testing.T) {
	sys := NewSystem[LinearDecay, RatioStatus](DefaultConfig(), nil)
	ents := mixed(10)
	for i := 0; i < 30; i++ {
		sys.Update(ents, Input{TimeDelta: 1}, nil)
	}
	// Organic items lose 4 per tick and are gone after 25 ticks.
	want := []string{"item-1", "item-3", "item-5", "item-7", "item-9"}
	if diff := cmp.Diff(want, sys.Destroyed()); diff != "" {
		t.Fatalf("destroyed order mismatch:\n%s", diff)
	}
	if sys.Metrics().EntitiesDestroyed != 5 {
		t.Fatalf("expected 5 destroyed, got %d", sys.Metrics().EntitiesDestroyed)
	}
	for _, e := range ents {
		if e.State.Current < 0 || e.State.Current > e.State.Max {
			t.Fatalf("durability out of range: %+v", e)
		}
	}
}

func TestStepEvents(t *testing.T) {
	st := NewState(10, 0.25, MaterialMetal)
	st.Current = 8.5
	buf := emit.NewBuffer[Event]()
	Default{}.Step(DefaultConfig(), &st, Input{TimeDelta: 1}, buf)
	want := []Event{
		DecayApplied{Amount: 2.5, Current: 6},
		StatusChanged{Old: StatusIntact, New: StatusWorn},
	}
	if diff := cmp.Diff(want, buf.Events()); diff != "" {
		t.Fatalf("events mismatch:\n%s", diff)
	}

	buf.Reset()
	st.Current = 1
	Default{}.Step(DefaultConfig(), &st, Input{TimeDelta: 1}, buf)
	want = []Event{
		DecayApplied{Amount: 1, Current: 0},
		StatusChanged{Old: StatusWorn, New: StatusDestroyed},
		EntityDestroyed{},
	}
	if diff := cmp.Diff(want, buf.Events()); diff != "" {
		t.Fatalf("events mismatch:\n%s", diff)
	}

	buf.Reset()
	Default{}.Step(DefaultConfig(), &st, Input{TimeDelta: 1}, buf)
	if buf.Len() != 0 {
		t.Fatalf("destroyed entity must stay quiet, got %v", buf.Events())
	}
}

func TestNoAutoDestroy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoDestroyOnZero = false
	st := NewState(1, 1, MaterialMetal)
	buf := emit.NewBuffer[Event]()
	Default{}.Step(cfg, &st, Input{TimeDelta: 5}, buf)
	want := []Event{
		DecayApplied{Amount: 1, Current: 0},
		StatusChanged{Old: StatusIntact, New: StatusDestroyed},
	}
	if diff := cmp.Diff(want, buf.Events()); diff != "" {
		t.Fatalf("events mismatch:\n%s", diff)
	}
}

func TestRepair(t *testing.T) {
	st := NewState(10, 0, MaterialStone)
	st.Current = 4
	st.Status = StatusDamaged
	buf := emit.NewBuffer[Event]()
	Default{}.Repair(DefaultConfig(), &st, 100, buf)
	want := []Event{
		Repaired{Amount: 6, Current: 10},
		StatusChanged{Old: StatusDamaged, New: StatusIntact},
	}
	if diff := cmp.Diff(want, buf.Events()); diff != "" {
		t.Fatalf("events mismatch:\n%s", diff)
	}

	dead := NewState(10, 0, MaterialStone)
	dead.Current, dead.Status = 0, StatusDestroyed
	buf.Reset()
	Default{}.Repair(DefaultConfig(), &dead, 5, buf)
	if buf.Len() != 0 || dead.Current != 0 {
		t.Fatalf("destroyed entity must not be repaired")
	}
}

func TestModels(t *testing.T) {
	st := NewState(100, 0.1, MaterialMetal)
	if d := (ExponentialDecay{}).Delta(st, Environment{}, 1); math.Abs(d+10) > 1e-9 {
		t.Fatalf("exponential: expected -10, got %v", d)
	}
	wet := Environment{Humidity: 1}
	if (EnvironmentalDecay{}).Delta(st, wet, 1) >= (LinearDecay{}).Delta(st, wet, 1) {
		t.Fatalf("humidity must speed up metal decay")
	}
	crystal := NewState(100, 0.1, MaterialCrystal)
	if (EnvironmentalDecay{}).Delta(crystal, wet, 1) != (LinearDecay{}).Delta(crystal, wet, 1) {
		t.Fatalf("crystal ignores humidity")
	}
}

func TestDecayMatchesCurrentDelta(t *testing.T) {
	st := NewState(50, 0.03, MaterialWood)
	for i := 0; i < 40; i++ {
		before := st.Current
		buf := emit.NewBuffer[Event]()
		Weather{}.Step(DefaultConfig(), &st, Input{TimeDelta: 1, Environment: Environment{Humidity: 0.6}}, buf)
		for _, ev := range buf.Events() {
			if d, ok := ev.(DecayApplied); ok && math.Abs(before-d.Amount-st.Current) > 1e-9 {
				t.Fatalf("decay %v does not explain %v -> %v", d.Amount, before, st.Current)
			}
		}
	}
}

func TestHistoryTrimmed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEvents = 4
	sys := NewSystem[LinearDecay, RatioStatus](cfg, nil)
	ents := mixed(6)
	sys.Update(ents, Input{TimeDelta: 1}, nil)
	if len(sys.History()) != 4 || sys.Dropped() != 2 {
		t.Fatalf("expected 4 kept and 2 dropped, got %d and %d", len(sys.History()), sys.Dropped())
	}
	if sys.History()[3].Entity != "item-5" {
		t.Fatalf("expected newest event last, got %+v", sys.History()[3])
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	seqSys := NewSystem[EnvironmentalDecay, RatioStatus](DefaultConfig(), nil)
	parSys := NewSystem[EnvironmentalDecay, RatioStatus](DefaultConfig(), nil)
	seq, par := mixed(23), mixed(23)
	in := Input{TimeDelta: 3, Environment: Environment{Humidity: 0.4, Temperature: 31}}
	seqOut, parOut := emit.NewBuffer[orchestrate.Tagged[Event]](), emit.NewBuffer[orchestrate.Tagged[Event]]()
	for i := 0; i < 10; i++ {
		seqSys.Update(seq, in, seqOut)
		if err := parSys.UpdateParallel(context.Background(), par, in, parOut, 4); err != nil {
			t.Fatalf("parallel update: %v", err)
		}
	}
	if diff := cmp.Diff(seqOut.Events(), parOut.Events(), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("events diverged:\n%s", diff)
	}
	if diff := cmp.Diff(seq, par); diff != "" {
		t.Fatalf("states diverged:\n%s", diff)
	}
}
