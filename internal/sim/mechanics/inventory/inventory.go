// Package inventory holds stacks of items under a capacity that a cost
// policy measures in slots, weight or not at all.
package inventory

import (
	"math"
	"slices"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
	"github.com/ynishi/issun-sub004/internal/sim/reject"
)

type Config struct {
	// Capacity is measured in the cost policy's unit; <= 0 is unbounded.
	Capacity float64 `json:"capacity" yaml:"capacity"`
	// StackSize is how many of one item fit in a slot under PerSlot.
	StackSize int `json:"stack_size" yaml:"stack_size"`
	// Weights per item id, read by PerWeight. Missing items weigh 1.
	Weights map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
}

func DefaultConfig() Config {
	return Config{Capacity: 20, StackSize: 99}
}

func (c Config) weight(item string) float64 {
	if w, ok := c.Weights[item]; ok {
		return w
	}
	return 1
}

type State struct {
	Items map[string]int `json:"items" yaml:"items"`
}

func NewState() State { return State{Items: map[string]int{}} }

// IDs returns held item ids in ascending order.
func (s State) IDs() []string {
	ids := make([]string, 0, len(s.Items))
	for id := range s.Items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// CostPolicy measures how much of the capacity a set of items uses.
type CostPolicy interface {
	Cost(items map[string]int, cfg Config) float64
}

// NoCost never fills up.
type NoCost struct{}

func (NoCost) Cost(map[string]int, Config) float64 { return 0 }

// PerSlot counts stacks: ceil(count/StackSize) per item.
type PerSlot struct{}

func (PerSlot) Cost(items map[string]int, cfg Config) float64 {
	stack := max(cfg.StackSize, 1)
	var slots int
	for _, n := range items {
		if n > 0 {
			slots += (n + stack - 1) / stack
		}
	}
	return float64(slots)
}

// PerWeight sums count*weight.
type PerWeight struct{}

func (PerWeight) Cost(items map[string]int, cfg Config) float64 {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	var w float64
	for _, id := range ids {
		w += float64(items[id]) * cfg.weight(id)
	}
	return w
}

type Action string

const (
	ActionAdd    Action = "ADD"
	ActionRemove Action = "REMOVE"
)

type Input struct {
	Action Action `json:"action"`
	Item   string `json:"item"`
	Count  int    `json:"count"`
}

type Event interface {
	Kind() string
}

type ItemAdded struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
	Total int    `json:"total"`
}

type ItemRemoved struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
	Total int    `json:"total"`
}

type OperationRejected struct {
	Action Action        `json:"action"`
	Item   string        `json:"item"`
	Reason reject.Reason `json:"reason"`
}

func (ItemAdded) Kind() string         { return "ITEM_ADDED" }
func (ItemRemoved) Kind() string       { return "ITEM_REMOVED" }
func (OperationRejected) Kind() string { return "OPERATION_REJECTED" }

type Mechanic[C CostPolicy] struct{}

type (
	Slots     = Mechanic[PerSlot]
	Weighted  = Mechanic[PerWeight]
	Unlimited = Mechanic[NoCost]
)

// Fits reports whether adding count of item keeps the cost within capacity.
func (Mechanic[C]) Fits(cfg Config, st State, item string, count int) bool {
	var c C
	if cfg.Capacity <= 0 {
		return true
	}
	next := make(map[string]int, len(st.Items)+1)
	for k, v := range st.Items {
		next[k] = v
	}
	next[item] += count
	return c.Cost(next, cfg) <= cfg.Capacity+1e-9
}

// Used is the capacity currently taken.
func (Mechanic[C]) Used(cfg Config, st State) float64 {
	var c C
	return c.Cost(st.Items, cfg)
}

func (m Mechanic[C]) Step(cfg Config, st *State, in Input, out emit.Emitter[Event]) {
	if st.Items == nil {
		st.Items = map[string]int{}
	}
	if r := m.check(cfg, *st, in); r != "" {
		out.Emit(OperationRejected{Action: in.Action, Item: in.Item, Reason: r})
		return
	}
	switch in.Action {
	case ActionAdd:
		st.Items[in.Item] += in.Count
		out.Emit(ItemAdded{Item: in.Item, Count: in.Count, Total: st.Items[in.Item]})
	case ActionRemove:
		st.Items[in.Item] -= in.Count
		left := st.Items[in.Item]
		if left == 0 {
			delete(st.Items, in.Item)
		}
		out.Emit(ItemRemoved{Item: in.Item, Count: in.Count, Total: left})
	}
}

func (m Mechanic[C]) check(cfg Config, st State, in Input) reject.Reason {
	if in.Count <= 0 || in.Item == "" {
		return reject.InvalidAmount
	}
	switch in.Action {
	case ActionAdd:
		if in.Count > math.MaxInt32-st.Items[in.Item] {
			return reject.InvalidAmount
		}
		if !m.Fits(cfg, st, in.Item, in.Count) {
			return reject.CapacityExceeded
		}
	case ActionRemove:
		have, ok := st.Items[in.Item]
		if !ok {
			return reject.ItemNotFound
		}
		if have < in.Count {
			return reject.NotEnoughItems
		}
	default:
		return reject.UnknownAction
	}
	return ""
}
