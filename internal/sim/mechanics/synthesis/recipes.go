// Package synthesis resolves crafting recipes: prerequisite chains, cycle
// detection and consuming ingredients from an inventory. Failures are
// returned, never emitted.
package synthesis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
)

var (
	ErrRecipeNotFound          = errors.New("recipe not found")
	ErrMissingPrerequisites    = errors.New("missing prerequisites")
	ErrCircularDependency      = errors.New("circular dependency")
	ErrInsufficientIngredients = errors.New("insufficient ingredients")
)

type ItemCount struct {
	Item  string `json:"item" yaml:"item"`
	Count int    `json:"count" yaml:"count"`
}

type Recipe struct {
	ID      string      `json:"recipe_id" yaml:"recipe_id"`
	Inputs  []ItemCount `json:"inputs" yaml:"inputs"`
	Outputs []ItemCount `json:"outputs" yaml:"outputs"`
	// Requires lists recipes that must have been crafted before this one.
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`
}

// Book is an immutable recipe catalog. Digest is the sha256 of the source
// bytes when loaded from disk.
type Book struct {
	ByID   map[string]Recipe
	Digest string
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// LoadRecipes reads a JSON array of recipes and validates the book.
func LoadRecipes(path string) (*Book, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var defs []Recipe
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("recipes.json: %w", err)
	}
	b, err := NewBook(defs...)
	if err != nil {
		return nil, fmt.Errorf("recipes.json: %w", err)
	}
	b.Digest = sha256Hex(raw)
	return b, nil
}

// NewBook indexes recipes and rejects unknown prerequisites and cycles.
func NewBook(recipes ...Recipe) (*Book, error) {
	b := &Book{ByID: make(map[string]Recipe, len(recipes))}
	for _, r := range recipes {
		if r.ID == "" {
			return nil, fmt.Errorf("empty recipe_id")
		}
		if _, dup := b.ByID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate recipe_id %q", r.ID)
		}
		for _, ic := range append(slices.Clone(r.Inputs), r.Outputs...) {
			if ic.Item == "" || ic.Count <= 0 {
				return nil, fmt.Errorf("recipe %q: bad item count %+v", r.ID, ic)
			}
		}
		b.ByID[r.ID] = r
	}
	for _, id := range b.IDs() {
		if _, err := b.Chain(id); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *Book) IDs() []string {
	ids := make([]string, 0, len(b.ByID))
	for id := range b.ByID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (b *Book) Get(id string) (Recipe, error) {
	r, ok := b.ByID[id]
	if !ok {
		return Recipe{}, fmt.Errorf("%q: %w", id, ErrRecipeNotFound)
	}
	return r, nil
}

// Chain returns every prerequisite of id in an order where each recipe
// follows its own prerequisites, ending with id itself. Siblings are visited
// in ascending id order.
func (b *Book) Chain(id string) ([]string, error) {
	const (
		visiting = 1
		done     = 2
	)
	mark := map[string]int{}
	var order []string
	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		switch mark[id] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%v -> %s: %w", path, id, ErrCircularDependency)
		}
		r, err := b.Get(id)
		if err != nil {
			return err
		}
		mark[id] = visiting
		reqs := slices.Clone(r.Requires)
		slices.Sort(reqs)
		for _, req := range reqs {
			if err := visit(req, append(slices.Clip(path), id)); err != nil {
				return err
			}
		}
		mark[id] = done
		order = append(order, id)
		return nil
	}
	if err := visit(id, nil); err != nil {
		return nil, err
	}
	return order, nil
}
