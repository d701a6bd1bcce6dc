package scenario

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"

	"github.com/ynishi/issun-sub004/internal/persistence/indexdb"
	"github.com/ynishi/issun-sub004/internal/persistence/journal"
	"github.com/ynishi/issun-sub004/internal/persistence/snapshot"
	"github.com/ynishi/issun-sub004/internal/protocol"
	"github.com/ynishi/issun-sub004/internal/sim/aggregate"
	"github.com/ynishi/issun-sub004/internal/sim/graph"
	"github.com/ynishi/issun-sub004/internal/sim/tuning"
)

func TestLoadDefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Ticks == 0 || len(cfg.Combat) == 0 || len(cfg.Outbreak.Seeds) == 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	doc := `
name: tiny
ticks: 3
combat:
  - id: rat
    hp: 5
    attacker_power: 9
    bounty: 2.5
economy:
  balances:
    gold: 1
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "tiny" || cfg.Ticks != 3 || len(cfg.Combat) != 1 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !cfg.Combat[0].Bounty.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("bounty: got %s", cfg.Combat[0].Bounty)
	}
	if cfg.Economy.Currency != "gold" {
		t.Fatalf("currency should default to gold, got %q", cfg.Economy.Currency)
	}
}

func TestValidateRejects(t *testing.T) {
	cfg := Config{
		Ticks: 0,
		Combat: []DuelSpec{
			{ID: "a", HP: 1},
			{ID: "a", HP: 1},
		},
		Outbreak: OutbreakSpec{Seeds: []graph.NodeID{"nowhere"}},
	}
	err := cfg.Validate()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	for _, want := range []string{"ticks must be > 0", `duplicate id "a"`, `seed "nowhere"`} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}

func runDemo(t *testing.T, dir, run string) Result {
	t.Helper()
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	res, err := Run(context.Background(), cfg, Options{DataDir: dir, Run: run, Tuning: tuning.Default()})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return res
}

func TestRunDemo(t *testing.T) {
	dir := t.TempDir()
	res := runDemo(t, dir, "demo-run")

	if res.Ticks != 24 {
		t.Fatalf("expected 24 ticks, got %d", res.Ticks)
	}
	// Two families every 6 ticks; epochs close at 12 and 24.
	if len(res.Snapshots) != 8 || len(res.Archived) != 4 {
		t.Fatalf("snapshots=%d archived=%d", len(res.Snapshots), len(res.Archived))
	}
	byName := cmpopts.SortSlices(func(a, b string) bool { return a < b })
	if diff := cmp.Diff([]string{"golem", "slime"}, res.Defeated, byName); diff != "" {
		t.Fatalf("defeated mismatch:\n%s", diff)
	}
	if res.Events[protocol.FamilyLoot] != 2 {
		t.Fatalf("expected one loot roll per kill, got %d", res.Events[protocol.FamilyLoot])
	}
	// Two bounties, one conversion, one failed withdrawal.
	if res.Events[protocol.FamilyEconomy] != 4 {
		t.Fatalf("expected 4 economy events, got %d", res.Events[protocol.FamilyEconomy])
	}
	if !decimal.RequireFromString(res.Balances["gold"]).Equal(decimal.NewFromInt(50)) {
		t.Fatalf("gold balance: %s", res.Balances["gold"])
	}
	if !decimal.RequireFromString(res.Balances["silver"]).Equal(decimal.NewFromInt(500)) {
		t.Fatalf("silver balance: %s", res.Balances["silver"])
	}

	envs, err := journal.ReadAll(EventsDir(dir, res.Run))
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	var total uint64
	for _, n := range res.Events {
		total += n
	}
	if uint64(len(envs)) != total {
		t.Fatalf("journal has %d envelopes, sinks wrote %d", len(envs), total)
	}
	for i, e := range envs {
		if e.Seq != uint64(i) || e.Run != res.Run {
			t.Fatalf("envelope %d: seq=%d run=%q", i, e.Seq, e.Run)
		}
		if err := e.Check(); err != nil {
			t.Fatalf("envelope %d: %v", i, err)
		}
	}

	h, err := snapshot.ReadHeader(res.Snapshots[len(res.Snapshots)-1])
	if err != nil {
		t.Fatalf("read snapshot header: %v", err)
	}
	if h.Tick != 24 || h.Run != res.Run || h.Family != protocol.FamilyGeneration {
		t.Fatalf("unexpected header %+v", h)
	}
	if _, err := os.Stat(filepath.Join(res.Dir, "archives", "epoch_002", "entropy.meta.json")); err != nil {
		t.Fatalf("archive meta missing: %v", err)
	}
}

func TestRunIndexesSamples(t *testing.T) {
	dir := t.TempDir()
	res := runDemo(t, dir, "indexed")

	idx, err := indexdb.OpenSQLite(IndexPath(dir), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	sum, err := idx.Summarize(ctx, res.Run, "combat.hp", aggregate.Window{})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum[aggregate.Count] != 48 || sum[aggregate.Min] != 0 {
		t.Fatalf("combat.hp summary: %+v", sum)
	}
	path, tick, err := idx.LatestSnapshot(ctx, res.Run)
	if err != nil {
		t.Fatalf("latest snapshot: %v", err)
	}
	if tick != 24 || path == "" {
		t.Fatalf("latest snapshot: %q at %d", path, tick)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	type line struct {
		Tick    uint64
		Family  string
		Entity  string
		Kind    string
		Payload string
	}
	collect := func(dir string) []line {
		res := runDemo(t, dir, "")
		envs, err := journal.ReadAll(EventsDir(dir, res.Run))
		if err != nil {
			t.Fatal(err)
		}
		out := make([]line, 0, len(envs))
		for _, e := range envs {
			out = append(out, line{e.Tick, e.Family, e.Entity, e.Kind, string(e.Payload)})
		}
		return out
	}
	a, b := collect(t.TempDir()), collect(t.TempDir())
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("runs diverged:\n%s", diff)
	}
}

func TestRunCancelled(t *testing.T) {
	cfg, _ := Load("")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Run(ctx, cfg, Options{DataDir: t.TempDir(), Tuning: tuning.Default()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Ticks != 0 {
		t.Fatalf("no tick should run, got %d", res.Ticks)
	}
}
