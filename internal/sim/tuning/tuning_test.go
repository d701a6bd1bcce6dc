package tuning

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/ynishi/issun-sub004/internal/sim/duration"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/contagion"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/economy"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default tuning invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := `
seed: 42
combat:
  min_damage: 3
contagion:
  incubation: {unit: turns, value: 2}
severity:
  ACTIVE: 50
economy:
  fee: "0.05"
  rates:
    - {from: gold, to: silver, rate: 100}
loot:
  drop_chance: 0.25
  table:
    - {item: gem, rarity: RARE, weight: 1, min: 1, max: 3}
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tu, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tu.Seed != 42 || tu.Combat.MinDamage != 3 {
		t.Fatalf("overrides lost: %+v", tu)
	}
	if tu.Combat.CriticalMultiplier != 2 || tu.Entropy.MaxEvents != 1000 {
		t.Fatalf("defaults lost: %+v", tu)
	}
	if tu.Contagion.Incubation != duration.Turns(2) || tu.Contagion.Active != duration.Turns(5) {
		t.Fatalf("contagion merge: %+v", tu.Contagion)
	}
	ob := tu.Outbreak()
	if ob.Severity[contagion.PhaseActive] != 50 || ob.Severity[contagion.PhaseIncubating] != 10 {
		t.Fatalf("severity merge: %+v", ob.Severity)
	}
	if !tu.Economy.Fee.Equal(decimal.RequireFromString("0.05")) {
		t.Fatalf("fee: %s", tu.Economy.Fee)
	}
	want := []economy.Rate{{From: "gold", To: "silver", Rate: decimal.NewFromInt(100)}}
	if len(tu.Economy.Rates) != 1 || !tu.Economy.Rates[0].Rate.Equal(want[0].Rate) || tu.Economy.Rates[0].From != "gold" {
		t.Fatalf("rates: %+v", tu.Economy.Rates)
	}
	if diff := cmp.Diff("gem", tu.Loot.Table[0].Item); diff != "" {
		t.Fatalf("loot table:\n%s", diff)
	}
}

func TestSchemaRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "colour: blue\n",
		"bad probability":  "combat:\n  critical_chance: 1.5\n",
		"bad unit":         "tick: {unit: years, value: 1}\n",
		"bad rarity":       "loot:\n  table:\n    - {item: x, weight: 1, rarity: MYTHIC}\n",
		"bad severity key": "severity:\n  ZOMBIE: 3\n",
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil || !strings.Contains(err.Error(), "schema") {
			t.Fatalf("%s: expected schema error, got %v", name, err)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"reputation bounds": "reputation:\n  min: 10\n  max: -10\n",
		"unit mismatch":     "tick: {unit: seconds, value: 0.5}\n",
		"fee too high":      "economy:\n  fee: 1\n",
		"loot range":        "loot:\n  table:\n    - {item: x, weight: 1, min: 5, max: 2}\n",
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw)); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestEmptyFileIsDefault(t *testing.T) {
	got, err := Parse([]byte("  \n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Seed != Default().Seed || got.Tick != Default().Tick {
		t.Fatalf("expected defaults, got %+v", got)
	}
}
