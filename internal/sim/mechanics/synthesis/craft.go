package synthesis

import (
	"fmt"
	"slices"

	"github.com/ynishi/issun-sub004/internal/sim/mechanics/inventory"
	"github.com/ynishi/issun-sub004/internal/sim/reject"
)

type Config struct {
	Inventory inventory.Config `json:"inventory" yaml:"inventory"`
}

type State struct {
	// Crafted records every recipe crafted at least once.
	Crafted map[string]bool `json:"crafted" yaml:"crafted"`
	Items   inventory.State `json:"items" yaml:"items"`
}

func NewState() State {
	return State{Crafted: map[string]bool{}, Items: inventory.NewState()}
}

// Crafter crafts against an inventory whose capacity C measures.
type Crafter[C inventory.CostPolicy] struct{}

type Default = Crafter[inventory.PerSlot]

// Missing lists prerequisites of id not yet crafted, in ascending order.
func (Crafter[C]) Missing(b *Book, st State, id string) ([]string, error) {
	r, err := b.Get(id)
	if err != nil {
		return nil, err
	}
	var miss []string
	for _, req := range r.Requires {
		if !st.Crafted[req] {
			miss = append(miss, req)
		}
	}
	slices.Sort(miss)
	return miss, nil
}

// Craft consumes the recipe inputs and adds its outputs. On any error the
// state is unchanged.
func (c Crafter[C]) Craft(cfg Config, b *Book, st *State, id string) ([]ItemCount, error) {
	r, err := b.Get(id)
	if err != nil {
		return nil, err
	}
	miss, _ := c.Missing(b, *st, id)
	if len(miss) > 0 {
		return nil, fmt.Errorf("%s needs %v: %w", id, miss, ErrMissingPrerequisites)
	}

	next := make(map[string]int, len(st.Items.Items)+len(r.Outputs))
	for k, v := range st.Items.Items {
		next[k] = v
	}
	for _, in := range r.Inputs {
		if next[in.Item] < in.Count {
			return nil, fmt.Errorf("%s needs %d %s, have %d: %w", id, in.Count, in.Item, next[in.Item], ErrInsufficientIngredients)
		}
		next[in.Item] -= in.Count
		if next[in.Item] == 0 {
			delete(next, in.Item)
		}
	}
	for _, o := range r.Outputs {
		next[o.Item] += o.Count
	}
	var cost C
	if cfg.Inventory.Capacity > 0 && cost.Cost(next, cfg.Inventory) > cfg.Inventory.Capacity+1e-9 {
		return nil, fmt.Errorf("%s: %w", id, reject.CapacityExceeded)
	}

	st.Items.Items = next
	if st.Crafted == nil {
		st.Crafted = map[string]bool{}
	}
	st.Crafted[id] = true
	return slices.Clone(r.Outputs), nil
}

// Plan is Chain filtered to recipes not yet crafted.
func (Crafter[C]) Plan(b *Book, st State, id string) ([]string, error) {
	chain, err := b.Chain(id)
	if err != nil {
		return nil, err
	}
	out := chain[:0]
	for _, step := range chain {
		if !st.Crafted[step] || step == id {
			out = append(out, step)
		}
	}
	return out, nil
}
