package combat

import (
	"fmt"

	"github.com/ynishi/issun-sub004/internal/sim/rng"
)

type Element string

const (
	ElementNone  Element = ""
	ElementFire  Element = "FIRE"
	ElementWater Element = "WATER"
	ElementEarth Element = "EARTH"
	ElementWind  Element = "WIND"
	ElementLight Element = "LIGHT"
	ElementDark  Element = "DARK"
)

type Config struct {
	MinDamage          int     `json:"min_damage" yaml:"min_damage"`
	CriticalMultiplier float64 `json:"critical_multiplier" yaml:"critical_multiplier"`
	CriticalChance     float64 `json:"critical_chance" yaml:"critical_chance"`
	// DefenseScale is k in the Percentage model raw*(1-def/(def+k)).
	DefenseScale float64 `json:"defense_scale" yaml:"defense_scale"`
	// CurveExponent shapes the Exponential and Logarithmic curves.
	CurveExponent float64 `json:"curve_exponent" yaml:"curve_exponent"`
}

func DefaultConfig() Config {
	return Config{
		MinDamage:          1,
		CriticalMultiplier: 2.0,
		CriticalChance:     0.1,
		DefenseScale:       100,
		CurveExponent:      1.0,
	}
}

type State struct {
	CurrentHP int `json:"current_hp" yaml:"current_hp"`
	MaxHP     int `json:"max_hp" yaml:"max_hp"`
}

// NewState clamps current into [0, max]. A negative max is a programming
// error.
func NewState(current, max int) State {
	if max < 0 {
		panic(fmt.Sprintf("combat: negative max_hp %d", max))
	}
	if current > max {
		current = max
	}
	if current < 0 {
		current = 0
	}
	return State{CurrentHP: current, MaxHP: max}
}

func (s State) IsAlive() bool { return s.CurrentHP > 0 }

type Input struct {
	AttackerPower   int     `json:"attacker_power"`
	DefenderDefense int     `json:"defender_defense"`
	AttackerElement Element `json:"attacker_element,omitempty"`
	DefenderElement Element `json:"defender_element,omitempty"`
	// Critical is read by FlaggedCritical.
	Critical bool `json:"critical,omitempty"`
	// Rand is read by RandomCritical.
	Rand rng.Source `json:"-"`
}

type Event interface {
	Kind() string
}

type DamageDealt struct {
	Amount     int  `json:"amount"`
	IsCritical bool `json:"is_critical"`
	IsFatal    bool `json:"is_fatal"`
}

// Blocked carries the signed mitigated value, so a host can show "-5".
type Blocked struct {
	AttemptedDamage int `json:"attempted_damage"`
}

// Evaded is reserved for accuracy policies; the shipped chain never emits it.
type Evaded struct{}

// AlreadyDefeated reports an attack on a target with no hit points left.
type AlreadyDefeated struct{}

func (DamageDealt) Kind() string     { return "DAMAGE_DEALT" }
func (Blocked) Kind() string         { return "BLOCKED" }
func (Evaded) Kind() string          { return "EVADED" }
func (AlreadyDefeated) Kind() string { return "ALREADY_DEFEATED" }
