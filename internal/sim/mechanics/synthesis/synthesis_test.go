package synthesis

import (
	"errors"
	"maps"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ynishi/issun-sub004/internal/sim/mechanics/inventory"
	"github.com/ynishi/issun-sub004/internal/sim/reject"
)

func book(t *testing.T) *Book {
	t.Helper()
	b, err := NewBook(
		Recipe{ID: "plank", Inputs: []ItemCount{{"log", 1}}, Outputs: []ItemCount{{"plank", 4}}},
		Recipe{ID: "stick", Inputs: []ItemCount{{"plank", 2}}, Outputs: []ItemCount{{"stick", 4}}, Requires: []string{"plank"}},
		Recipe{ID: "pickaxe", Inputs: []ItemCount{{"plank", 3}, {"stick", 2}}, Outputs: []ItemCount{{"pickaxe", 1}}, Requires: []string{"stick", "plank"}},
	)
	if err != nil {
		t.Fatalf("NewBook: %v", err)
	}
	return b
}

func TestChainOrder(t *testing.T) {
	got, err := book(t).Chain("pickaxe")
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if diff := cmp.Diff([]string{"plank", "stick", "pickaxe"}, got); diff != "" {
		t.Fatalf("chain mismatch:\n%s", diff)
	}
}

func TestCycleAndUnknownRejected(t *testing.T) {
	_, err := NewBook(
		Recipe{ID: "a", Outputs: []ItemCount{{"a", 1}}, Requires: []string{"b"}},
		Recipe{ID: "b", Outputs: []ItemCount{{"b", 1}}, Requires: []string{"a"}},
	)
	if !errors.Is(err, ErrCircularDependency) {
		t.Fatalf("expected ErrCircularDependency, got %v", err)
	}
	_, err = NewBook(Recipe{ID: "a", Outputs: []ItemCount{{"a", 1}}, Requires: []string{"ghost"}})
	if !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("expected ErrRecipeNotFound, got %v", err)
	}
}

func TestCraftFlow(t *testing.T) {
	b := book(t)
	cfg := Config{Inventory: inventory.DefaultConfig()}
	st := NewState()
	st.Items.Items["log"] = 2
	var c Default

	if _, err := c.Craft(cfg, b, &st, "stick"); !errors.Is(err, ErrMissingPrerequisites) {
		t.Fatalf("expected ErrMissingPrerequisites, got %v", err)
	}
	if _, err := c.Craft(cfg, b, &st, "wand"); !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("expected ErrRecipeNotFound, got %v", err)
	}
	for _, id := range []string{"plank", "plank", "stick"} {
		if _, err := c.Craft(cfg, b, &st, id); err != nil {
			t.Fatalf("craft %s: %v", id, err)
		}
	}
	want := map[string]int{"plank": 6, "stick": 4}
	if diff := cmp.Diff(want, st.Items.Items); diff != "" {
		t.Fatalf("items mismatch:\n%s", diff)
	}
	out, err := c.Craft(cfg, b, &st, "pickaxe")
	if err != nil || !cmp.Equal(out, []ItemCount{{"pickaxe", 1}}) {
		t.Fatalf("pickaxe: %v %v", out, err)
	}
	before := maps.Clone(st.Items.Items)
	if _, err := c.Craft(cfg, b, &st, "plank"); !errors.Is(err, ErrInsufficientIngredients) {
		t.Fatalf("expected ErrInsufficientIngredients, got %v", err)
	}
	if !cmp.Equal(before, st.Items.Items) {
		t.Fatalf("failed craft mutated items")
	}
}

func TestCraftRespectsCapacity(t *testing.T) {
	b := book(t)
	cfg := Config{Inventory: inventory.Config{Capacity: 3, Weights: map[string]float64{"plank": 1}}}
	st := NewState()
	st.Items.Items["log"] = 1
	_, err := Crafter[inventory.PerWeight]{}.Craft(cfg, b, &st, "plank")
	if !errors.Is(err, reject.CapacityExceeded) {
		t.Fatalf("expected capacity rejection, got %v", err)
	}
	if st.Items.Items["log"] != 1 || st.Crafted["plank"] {
		t.Fatalf("state changed on rejection: %+v", st)
	}
}

func TestPlanSkipsCrafted(t *testing.T) {
	b := book(t)
	st := NewState()
	st.Crafted["plank"] = true
	got, err := Default{}.Plan(b, st, "pickaxe")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if diff := cmp.Diff([]string{"stick", "pickaxe"}, got); diff != "" {
		t.Fatalf("plan mismatch:\n%s", diff)
	}
}

func TestLoadRecipes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.json")
	raw := `[{"recipe_id":"plank","inputs":[{"item":"log","count":1}],"outputs":[{"item":"plank","count":4}]}]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := LoadRecipes(path)
	if err != nil {
		t.Fatalf("LoadRecipes: %v", err)
	}
	if len(b.Digest) != 64 || len(b.ByID) != 1 {
		t.Fatalf("unexpected book %+v", b)
	}
	if err := os.WriteFile(path, []byte(`[{"recipe_id":""}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadRecipes(path); err == nil {
		t.Fatalf("expected empty id error")
	}
}
