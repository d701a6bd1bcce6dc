// Package scenario drives several mechanic families over a shared tick clock
// for headless runs. A scenario file lists the entities of each family; the
// tuning file supplies their configs.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ynishi/issun-sub004/internal/sim/graph"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/combat"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/economy"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/entropy"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/generation"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/loot"
)

type Config struct {
	Name          string `yaml:"name"`
	Ticks         uint64 `yaml:"ticks"`
	SnapshotEvery uint64 `yaml:"snapshot_every"`
	// ArchiveEvery copies the snapshot closing every N-tick epoch; 0 disables.
	ArchiveEvery uint64 `yaml:"archive_every"`

	Entropy    EntropySpec    `yaml:"entropy"`
	Generation GenerationSpec `yaml:"generation"`
	Combat     []DuelSpec     `yaml:"combat"`
	Outbreak   OutbreakSpec   `yaml:"outbreak"`
	Economy    EconomySpec    `yaml:"economy"`
	// Loot replaces the tuning drop table when set.
	Loot []loot.Entry `yaml:"loot,omitempty"`
}

type EntropySpec struct {
	Environment entropy.Environment `yaml:"environment"`
	Items       []DecaySpec         `yaml:"items"`
}

type DecaySpec struct {
	ID        string           `yaml:"id"`
	Max       float64          `yaml:"max"`
	DecayRate float64          `yaml:"decay_rate"`
	Material  entropy.Material `yaml:"material"`
}

type GenerationSpec struct {
	Environment *generation.Environment `yaml:"environment,omitempty"`
	Projects    []ProjectSpec           `yaml:"projects"`
}

type ProjectSpec struct {
	ID         string          `yaml:"id"`
	Max        float64         `yaml:"max"`
	GrowthRate float64         `yaml:"growth_rate"`
	Kind       generation.Kind `yaml:"kind"`
}

// DuelSpec is one attacker hitting one defender every tick until the
// defender falls. A kill rolls the loot table with Luck and pays Bounty.
type DuelSpec struct {
	ID              string          `yaml:"id"`
	HP              int             `yaml:"hp"`
	AttackerPower   int             `yaml:"attacker_power"`
	DefenderDefense int             `yaml:"defender_defense"`
	AttackerElement combat.Element  `yaml:"attacker_element,omitempty"`
	DefenderElement combat.Element  `yaml:"defender_element,omitempty"`
	Luck            float64         `yaml:"luck"`
	Bounty          decimal.Decimal `yaml:"bounty"`
}

type OutbreakSpec struct {
	Edges []graph.Edge   `yaml:"edges"`
	Seeds []graph.NodeID `yaml:"seeds"`
}

type EconomySpec struct {
	// Currency receives bounties.
	Currency economy.Currency                     `yaml:"currency"`
	Balances map[economy.Currency]decimal.Decimal `yaml:"balances"`
	// Rates are added to the tuning exchange table.
	Rates  []economy.Rate `yaml:"rates,omitempty"`
	Orders []OrderSpec    `yaml:"orders"`
}

// OrderSpec is a ledger instruction applied at the start of Tick.
type OrderSpec struct {
	Tick     uint64           `yaml:"tick"`
	Action   economy.Action   `yaml:"action"`
	Currency economy.Currency `yaml:"currency"`
	To       economy.Currency `yaml:"to,omitempty"`
	Amount   decimal.Decimal  `yaml:"amount"`
}

var ErrInvalid = errors.New("invalid scenario")

// Load reads a scenario file. An empty path yields the built-in demo.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	cfg = Config{}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("scenario.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("scenario.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Name:          "demo",
		Ticks:         24,
		SnapshotEvery: 6,
		ArchiveEvery:  12,
		Entropy: EntropySpec{
			Environment: entropy.Environment{Temperature: 20, Humidity: 0.4},
			Items: []DecaySpec{
				{ID: "bridge", Max: 100, DecayRate: 2, Material: entropy.MaterialWood},
				{ID: "gate", Max: 100, DecayRate: 1, Material: entropy.MaterialMetal},
			},
		},
		Generation: GenerationSpec{
			Projects: []ProjectSpec{
				{ID: "farm", Max: 40, GrowthRate: 3, Kind: generation.KindCultivation},
				{ID: "library", Max: 60, GrowthRate: 2, Kind: generation.KindResearch},
			},
		},
		Combat: []DuelSpec{
			{ID: "slime", HP: 30, AttackerPower: 18, DefenderDefense: 4, Luck: 0.5, Bounty: decimal.NewFromInt(5)},
			{ID: "golem", HP: 120, AttackerPower: 25, DefenderDefense: 10, AttackerElement: combat.ElementWater, DefenderElement: combat.ElementFire, Bounty: decimal.NewFromInt(40)},
		},
		Outbreak: OutbreakSpec{
			Edges: []graph.Edge{
				{From: "harbor", To: "market", Weight: 0.6, Bidirectional: true},
				{From: "market", To: "keep", Weight: 0.3},
				{From: "market", To: "farms", Weight: 0.4, Bidirectional: true},
			},
			Seeds: []graph.NodeID{"harbor"},
		},
		Economy: EconomySpec{
			Currency: "gold",
			Balances: map[economy.Currency]decimal.Decimal{"gold": decimal.NewFromInt(10)},
			Rates:    []economy.Rate{{From: "gold", To: "silver", Rate: decimal.NewFromInt(100)}},
			Orders: []OrderSpec{
				{Tick: 8, Action: economy.ActionConvert, Currency: "gold", To: "silver", Amount: decimal.NewFromInt(5)},
				{Tick: 16, Action: economy.ActionWithdraw, Currency: "silver", Amount: decimal.NewFromInt(1000)},
			},
		},
		Loot: []loot.Entry{
			{Item: "slime_gel", Rarity: loot.Common, Weight: 10, Min: 1, Max: 3},
			{Item: "mana_shard", Rarity: loot.Rare, Weight: 2, Min: 1, Max: 1},
			{Item: "dragon_scale", Rarity: loot.Legendary, Weight: 0.2, Min: 1, Max: 1},
		},
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	if strings.TrimSpace(c.Name) == "" {
		c.Name = "scenario"
	}
	if c.Economy.Currency == "" {
		c.Economy.Currency = "gold"
	}
	for i := range c.Entropy.Items {
		if c.Entropy.Items[i].Material == "" {
			c.Entropy.Items[i].Material = entropy.MaterialStone
		}
	}
	for i := range c.Generation.Projects {
		if c.Generation.Projects[i].Kind == "" {
			c.Generation.Projects[i].Kind = generation.KindConstruction
		}
	}
	sort.SliceStable(c.Economy.Orders, func(i, j int) bool { return c.Economy.Orders[i].Tick < c.Economy.Orders[j].Tick })
}

func (c Config) Validate() error {
	var errs []string
	if c.Ticks == 0 {
		errs = append(errs, "ticks must be > 0")
	}
	seen := map[string]bool{}
	claim := func(family, id string) {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, family+": empty id")
			return
		}
		if seen[family+"/"+id] {
			errs = append(errs, fmt.Sprintf("%s: duplicate id %q", family, id))
			return
		}
		seen[family+"/"+id] = true
	}
	for _, it := range c.Entropy.Items {
		claim("entropy", it.ID)
		if it.Max < 0 {
			errs = append(errs, fmt.Sprintf("entropy %s: negative max", it.ID))
		}
	}
	for _, p := range c.Generation.Projects {
		claim("generation", p.ID)
		if p.Max < 0 {
			errs = append(errs, fmt.Sprintf("generation %s: negative max", p.ID))
		}
	}
	for _, d := range c.Combat {
		claim("combat", d.ID)
		if d.HP < 0 {
			errs = append(errs, fmt.Sprintf("combat %s: negative hp", d.ID))
		}
		if d.Bounty.IsNegative() {
			errs = append(errs, fmt.Sprintf("combat %s: negative bounty", d.ID))
		}
	}
	nodes := map[graph.NodeID]bool{}
	for _, e := range c.Outbreak.Edges {
		nodes[e.From], nodes[e.To] = true, true
		if e.Weight < 0 {
			errs = append(errs, fmt.Sprintf("outbreak %s->%s: negative weight", e.From, e.To))
		}
	}
	for _, s := range c.Outbreak.Seeds {
		if !nodes[s] {
			errs = append(errs, fmt.Sprintf("outbreak: seed %q is not on any edge", s))
		}
	}
	for cur, bal := range c.Economy.Balances {
		if bal.IsNegative() {
			errs = append(errs, fmt.Sprintf("economy: negative %s balance", cur))
		}
	}
	for _, r := range c.Economy.Rates {
		if !r.Rate.IsPositive() {
			errs = append(errs, fmt.Sprintf("economy: rate %s->%s must be positive", r.From, r.To))
		}
	}
	for _, e := range c.Loot {
		if e.Max < e.Min {
			errs = append(errs, fmt.Sprintf("loot %s: max below min", e.Item))
		}
	}
	for _, o := range c.Economy.Orders {
		switch o.Action {
		case economy.ActionDeposit, economy.ActionWithdraw, economy.ActionConvert:
		default:
			errs = append(errs, fmt.Sprintf("economy: unknown action %q at tick %d", o.Action, o.Tick))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	sort.Strings(errs)
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
}
