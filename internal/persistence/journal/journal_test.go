package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ynishi/issun-sub004/internal/protocol"
	"github.com/ynishi/issun-sub004/internal/sim/emit"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/combat"
	"github.com/ynishi/issun-sub004/internal/sim/orchestrate"
)

func TestWriterRotatesAndReadsBack(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "run-1", nil)
	clock := time.Date(2026, 1, 2, 3, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	for i := range 5 {
		if i == 3 {
			clock = clock.Add(2 * time.Minute)
		}
		env, err := protocol.Wrap("ignored", uint64(i), protocol.FamilyCombat, "", combat.DamageDealt{Amount: i})
		if err != nil {
			t.Fatalf("Wrap: %v", err)
		}
		got, err := w.Append(env)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if got.Seq != uint64(i) || got.Run != "run-1" {
			t.Fatalf("append stamped %+v", got)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := Files(dir)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	want := []string{"events-2026-01-02-03.jsonl.zst", "events-2026-01-02-04.jsonl.zst"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("files mismatch:\n%s", diff)
	}

	all, err := ReadAll(dir)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 envelopes, got %d", len(all))
	}
	for i, e := range all {
		var d combat.DamageDealt
		if err := e.Into(&d); err != nil {
			t.Fatalf("Into: %v", err)
		}
		if e.Seq != uint64(i) || e.Tick != uint64(i) || d.Amount != i {
			t.Fatalf("envelope %d out of order: %+v %+v", i, e, d)
		}
	}

	b, err := ReadBatch(dir, 1, 2)
	if err != nil {
		t.Fatalf("ReadBatch: %v", err)
	}
	if b.Run != "run-1" || b.Next != 3 || len(b.Envelopes) != 2 || b.Envelopes[0].Seq != 1 {
		t.Fatalf("batch mismatch: %+v", b)
	}
	tail, err := ReadBatch(dir, 5, 0)
	if err != nil || len(tail.Envelopes) != 0 || tail.Next != 5 {
		t.Fatalf("empty tail batch: %+v %v", tail, err)
	}
}

func TestSinkStampsTickAndEntity(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, NewRunID(), nil)
	clock := &TickCounter{}
	sink := NewSink[combat.Event](w, protocol.FamilyCombat, clock)

	st := combat.NewState(10, 10)
	clock.Advance()
	combat.Default{}.Step(combat.DefaultConfig(), &st, combat.Input{AttackerPower: 4}, sink.For("goblin"))
	clock.Advance()
	tagged := sink.Tagged()
	var out emit.Emitter[orchestrate.Tagged[combat.Event]] = tagged
	out.Emit(orchestrate.Tagged[combat.Event]{Entity: "orc", Event: combat.Blocked{AttemptedDamage: -2}})

	if err := sink.Err(); err != nil {
		t.Fatalf("sink error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	all, err := ReadAll(dir)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	type row struct {
		Tick   uint64
		Entity string
		Kind   string
	}
	var got []row
	for _, e := range all {
		got = append(got, row{e.Tick, e.Entity, e.Kind})
	}
	want := []row{{1, "goblin", "DAMAGE_DEALT"}, {2, "orc", "BLOCKED"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("journal mismatch:\n%s", diff)
	}
}

func TestNewRunIDUnique(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b || len(a) != 36 {
		t.Fatalf("unexpected run ids %q %q", a, b)
	}
}
