// Package tuning loads every mechanic family's Config from one YAML file.
//
// A file only needs the keys it changes: it is decoded over Default(). The
// raw document is checked against the embedded JSON schema before decoding
// and the result is checked again by Validate.
package tuning

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ynishi/issun-sub004/internal/sim/duration"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/combat"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/contagion"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/economy"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/entropy"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/evolution"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/generation"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/inventory"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/loot"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/propagation"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/reputation"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/rights"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/securitization"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/spatial"
	"github.com/ynishi/issun-sub004/internal/sim/outbreak"
)

//go:embed tuning.schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("tuning.schema.json", schemaJSON)

var ErrInvalid = errors.New("invalid tuning")

type Tuning struct {
	// Seed keys every rng.Stream the host derives.
	Seed int64 `yaml:"seed" json:"seed"`
	// Tick is the time delta fed to time-based mechanics per host tick.
	Tick duration.Duration `yaml:"tick" json:"tick"`

	Combat         combat.Config               `yaml:"combat" json:"combat"`
	Evolution      evolution.Config            `yaml:"evolution" json:"evolution"`
	Reputation     reputation.Config           `yaml:"reputation" json:"reputation"`
	Entropy        entropy.Config              `yaml:"entropy" json:"entropy"`
	Generation     generation.Config           `yaml:"generation" json:"generation"`
	Propagation    propagation.Config          `yaml:"propagation" json:"propagation"`
	Contagion      contagion.Config            `yaml:"contagion" json:"contagion"`
	Severity       map[contagion.Phase]float64 `yaml:"severity" json:"severity"`
	Spatial        spatial.Config              `yaml:"spatial" json:"spatial"`
	Securitization securitization.Config       `yaml:"securitization" json:"securitization"`
	Rights         rights.Config               `yaml:"rights" json:"rights"`
	Inventory      inventory.Config            `yaml:"inventory" json:"inventory"`
	Economy        economy.Config              `yaml:"economy" json:"economy"`
	Loot           loot.Config                 `yaml:"loot" json:"loot"`
}

func Default() Tuning {
	ob := outbreak.DefaultConfig()
	return Tuning{
		Seed:           1,
		Tick:           duration.Turns(1),
		Combat:         combat.DefaultConfig(),
		Evolution:      evolution.DefaultConfig(),
		Reputation:     reputation.DefaultConfig(),
		Entropy:        entropy.DefaultConfig(),
		Generation:     generation.DefaultConfig(),
		Propagation:    ob.Propagation,
		Contagion:      ob.Contagion,
		Severity:       ob.Severity,
		Spatial:        spatial.DefaultConfig(),
		Securitization: securitization.DefaultConfig(),
		Rights:         rights.DefaultConfig(),
		Inventory:      inventory.DefaultConfig(),
		Economy:        economy.DefaultConfig(),
		Loot:           loot.DefaultConfig(),
	}
}

// Outbreak assembles the coupled propagation/contagion config.
func (t Tuning) Outbreak() outbreak.Config {
	return outbreak.Config{Propagation: t.Propagation, Contagion: t.Contagion, Severity: t.Severity}
}

func Load(path string) (Tuning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, err
	}
	t, err := Parse(raw)
	if err != nil {
		return Tuning{}, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Parse decodes raw YAML over Default and validates it.
func Parse(raw []byte) (Tuning, error) {
	t := Default()
	if len(bytes.TrimSpace(raw)) == 0 {
		return t, nil
	}
	if err := CheckSchema(raw); err != nil {
		return Tuning{}, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Tuning{}, err
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

// CheckSchema validates a YAML document against the embedded schema.
func CheckSchema(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	// Round trip through JSON so the validator sees JSON types.
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

// Validate checks constraints the schema cannot express.
func (t Tuning) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if t.Reputation.Min > t.Reputation.Max {
		bad("reputation: min %v > max %v", t.Reputation.Min, t.Reputation.Max)
	}
	if n := t.Reputation.Neutral; n < t.Reputation.Min || n > t.Reputation.Max {
		bad("reputation: neutral %v outside [%v, %v]", n, t.Reputation.Min, t.Reputation.Max)
	}
	for i := 1; i < len(t.Reputation.Bands); i++ {
		if t.Reputation.Bands[i].Lower <= t.Reputation.Bands[i-1].Lower {
			bad("reputation: bands must ascend (%s after %s)", t.Reputation.Bands[i].Name, t.Reputation.Bands[i-1].Name)
		}
	}
	if t.Combat.CriticalMultiplier < 1 {
		bad("combat: critical_multiplier %v < 1", t.Combat.CriticalMultiplier)
	}
	for name, d := range map[string]duration.Duration{
		"incubation": t.Contagion.Incubation,
		"active":     t.Contagion.Active,
		"immunity":   t.Contagion.Immunity,
	} {
		if !d.SameUnit(t.Tick) {
			bad("contagion: %s unit %q does not match tick unit %q", name, d.Unit, t.Tick.Unit)
		}
	}
	if t.Propagation.MaxPressure < t.Propagation.TriggerThreshold {
		bad("propagation: max_pressure %v below trigger_threshold %v", t.Propagation.MaxPressure, t.Propagation.TriggerThreshold)
	}
	if t.Economy.Fee.IsNegative() || t.Economy.Fee.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		bad("economy: fee %s outside [0, 1)", t.Economy.Fee)
	}
	for _, r := range t.Economy.Rates {
		if !r.Rate.IsPositive() {
			bad("economy: rate %s->%s must be positive", r.From, r.To)
		}
	}
	for _, e := range t.Loot.Table {
		if e.Max > 0 && e.Max < e.Min {
			bad("loot: %s max %d < min %d", e.Item, e.Max, e.Min)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	// Map iteration above is unordered; sort for stable messages.
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	slices.Sort(msgs)
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}
