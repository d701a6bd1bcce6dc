// Package loot rolls drop tables.
//
// Every roll with a non-nil source consumes exactly two draws: the first
// decides whether anything drops, the second picks the entry and, from its
// position inside the entry's weight span, the stack size.
package loot

import (
	"math"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
	"github.com/ynishi/issun-sub004/internal/sim/rng"
)

type Rarity string

const (
	Common    Rarity = "COMMON"
	Uncommon  Rarity = "UNCOMMON"
	Rare      Rarity = "RARE"
	Epic      Rarity = "EPIC"
	Legendary Rarity = "LEGENDARY"
)

// Rank is 0 for Common up to 4 for Legendary; unknown rarities rank 0.
func (r Rarity) Rank() int {
	switch r {
	case Uncommon:
		return 1
	case Rare:
		return 2
	case Epic:
		return 3
	case Legendary:
		return 4
	}
	return 0
}

type Entry struct {
	Item   string  `json:"item" yaml:"item"`
	Rarity Rarity  `json:"rarity" yaml:"rarity"`
	Weight float64 `json:"weight" yaml:"weight"`
	Min    int     `json:"min" yaml:"min"`
	Max    int     `json:"max" yaml:"max"`
}

type Config struct {
	DropChance float64 `json:"drop_chance" yaml:"drop_chance"`
	// LuckFactor scales how much luck lifts rarer entries under LuckWeighted.
	LuckFactor float64 `json:"luck_factor" yaml:"luck_factor"`
	Table      []Entry `json:"table" yaml:"table"`
}

func DefaultConfig() Config {
	return Config{DropChance: 0.5, LuckFactor: 0.25}
}

type State struct {
	Rolls   int            `json:"rolls" yaml:"rolls"`
	Dropped map[string]int `json:"dropped,omitempty" yaml:"dropped,omitempty"`
}

type Input struct {
	Luck float64    `json:"luck"`
	Rand rng.Source `json:"-" yaml:"-"`
}

type Event interface {
	Kind() string
}

type ItemDropped struct {
	Item   string `json:"item"`
	Rarity Rarity `json:"rarity"`
	Count  int    `json:"count"`
}

type NothingDropped struct{}

func (ItemDropped) Kind() string    { return "ITEM_DROPPED" }
func (NothingDropped) Kind() string { return "NOTHING_DROPPED" }

// WeightPolicy gives the effective weight of an entry for a roll.
type WeightPolicy interface {
	Weight(e Entry, luck float64, cfg Config) float64
}

type FlatWeights struct{}

func (FlatWeights) Weight(e Entry, _ float64, _ Config) float64 { return math.Max(0, e.Weight) }

// LuckWeighted multiplies by (1 + luck*LuckFactor)^rank, so positive luck
// favours rare entries and negative luck (floored at 0) favours common ones.
type LuckWeighted struct{}

func (LuckWeighted) Weight(e Entry, luck float64, cfg Config) float64 {
	boost := math.Max(0, 1+luck*cfg.LuckFactor)
	return math.Max(0, e.Weight) * math.Pow(boost, float64(e.Rarity.Rank()))
}

type Mechanic[W WeightPolicy] struct{}

type (
	Default = Mechanic[FlatWeights]
	Lucky   = Mechanic[LuckWeighted]
)

func (Mechanic[W]) Step(cfg Config, st *State, in Input, out emit.Emitter[Event]) {
	var w W
	st.Rolls++
	if in.Rand == nil {
		out.Emit(NothingDropped{})
		return
	}
	gate := in.Rand.Float64()
	pick := in.Rand.Float64()

	weights := make([]float64, len(cfg.Table))
	var total float64
	for i, e := range cfg.Table {
		weights[i] = w.Weight(e, in.Luck, cfg)
		total += weights[i]
	}
	if gate >= cfg.DropChance || total <= 0 {
		out.Emit(NothingDropped{})
		return
	}

	target := pick * total
	idx := len(weights) - 1
	var acc float64
	for i, wt := range weights {
		if wt > 0 && target < acc+wt {
			idx = i
			break
		}
		acc += wt
	}
	for weights[idx] <= 0 {
		idx--
	}
	e := cfg.Table[idx]
	frac := math.Min(math.Max((target-acc)/weights[idx], 0), math.Nextafter(1, 0))
	count := stackSize(e, frac)

	if st.Dropped == nil {
		st.Dropped = map[string]int{}
	}
	st.Dropped[e.Item] += count
	out.Emit(ItemDropped{Item: e.Item, Rarity: e.Rarity, Count: count})
}

func stackSize(e Entry, frac float64) int {
	lo := max(e.Min, 1)
	hi := max(e.Max, lo)
	return lo + int(frac*float64(hi-lo+1))
}
