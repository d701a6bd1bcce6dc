// Package rights validates and records claims on a single asset under one of
// three rights systems: absolute ownership, partial shares, or layered
// claims weighted by legitimacy.
package rights

import (
	"math"
	"slices"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
	"github.com/ynishi/issun-sub004/internal/sim/reject"
)

type Config struct {
	// MinStrength is the smallest share PartialRights accepts.
	MinStrength float64 `json:"min_strength" yaml:"min_strength"`
	// MinLegitimacy is the smallest legitimacy LayeredRights accepts.
	MinLegitimacy float64 `json:"min_legitimacy" yaml:"min_legitimacy"`
	// MaxLayers bounds Claim.Layer under LayeredRights.
	MaxLayers int `json:"max_layers" yaml:"max_layers"`
}

func DefaultConfig() Config {
	return Config{MinStrength: 0.1, MinLegitimacy: 0, MaxLayers: 3}
}

type Claim struct {
	Holder     string  `json:"holder" yaml:"holder"`
	Strength   float64 `json:"strength" yaml:"strength"`
	Legitimacy float64 `json:"legitimacy" yaml:"legitimacy"`
	Layer      int     `json:"layer" yaml:"layer"`
}

// RightsSystemPolicy turns a requested claim into its effective strength or
// a rejection reason.
type RightsSystemPolicy interface {
	Validate(cfg Config, c Claim) (float64, reject.Reason)
}

func unit(x float64) bool { return x >= 0 && x <= 1 && !math.IsNaN(x) }

// AbsoluteRights only accepts whole ownership.
type AbsoluteRights struct{}

func (AbsoluteRights) Validate(_ Config, c Claim) (float64, reject.Reason) {
	if !unit(c.Strength) {
		return 0, reject.StrengthOutOfRange
	}
	if c.Strength != 1 {
		return 0, reject.PartialClaimsNotAllowed
	}
	return 1, ""
}

// PartialRights accepts any share of at least MinStrength.
type PartialRights struct{}

func (PartialRights) Validate(cfg Config, c Claim) (float64, reject.Reason) {
	if !unit(c.Strength) {
		return 0, reject.StrengthOutOfRange
	}
	if c.Strength < cfg.MinStrength {
		return 0, reject.BelowMinimumStrength
	}
	return c.Strength, ""
}

// LayeredRights discounts a claim by the square of its legitimacy:
// effective = strength * legitimacy^2.
type LayeredRights struct{}

func (LayeredRights) Validate(cfg Config, c Claim) (float64, reject.Reason) {
	if !unit(c.Strength) {
		return 0, reject.StrengthOutOfRange
	}
	if !unit(c.Legitimacy) || c.Legitimacy < cfg.MinLegitimacy {
		return 0, reject.InsufficientLegitimacy
	}
	if cfg.MaxLayers > 0 && c.Layer > cfg.MaxLayers {
		return 0, reject.TooManyLayers
	}
	return c.Strength * c.Legitimacy * c.Legitimacy, ""
}

// Validate runs policy P on c. The error is a reject.Reason.
func Validate[P RightsSystemPolicy](cfg Config, c Claim) (float64, error) {
	var p P
	eff, r := p.Validate(cfg, c)
	if r != "" {
		return 0, r
	}
	return eff, nil
}

// State maps holders to effective strength. The total never exceeds 1.
type State struct {
	Claims map[string]float64 `json:"claims" yaml:"claims"`
}

func NewState() State { return State{Claims: map[string]float64{}} }

// Total sums effective strengths in holder order.
func (s State) Total() float64 { return s.totalExcept("") }

func (s State) totalExcept(holder string) float64 {
	keys := make([]string, 0, len(s.Claims))
	for k := range s.Claims {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var t float64
	for _, k := range keys {
		if k != holder || holder == "" {
			t += s.Claims[k]
		}
	}
	return t
}

type Action string

const (
	ActionClaim   Action = "CLAIM"
	ActionRelease Action = "RELEASE"
)

type Input struct {
	Action Action `json:"action"`
	Claim  Claim  `json:"claim"`
}

type Event interface {
	Kind() string
}

type ClaimGranted struct {
	Holder    string  `json:"holder"`
	Effective float64 `json:"effective"`
}

type ClaimRejected struct {
	Holder string        `json:"holder"`
	Reason reject.Reason `json:"reason"`
}

type ClaimReleased struct {
	Holder   string  `json:"holder"`
	Strength float64 `json:"strength"`
}

func (ClaimGranted) Kind() string  { return "CLAIM_GRANTED" }
func (ClaimRejected) Kind() string { return "CLAIM_REJECTED" }
func (ClaimReleased) Kind() string { return "CLAIM_RELEASED" }

type Mechanic[P RightsSystemPolicy] struct{}

type (
	Absolute = Mechanic[AbsoluteRights]
	Partial  = Mechanic[PartialRights]
	Layered  = Mechanic[LayeredRights]
)

const totalEpsilon = 1e-9

// Step grants, replaces or releases one holder's claim. A new claim replaces
// the holder's previous one, so it is checked against what the others hold.
func (Mechanic[P]) Step(cfg Config, st *State, in Input, out emit.Emitter[Event]) {
	var p P
	if st.Claims == nil {
		st.Claims = map[string]float64{}
	}
	h := in.Claim.Holder
	switch in.Action {
	case ActionClaim:
		eff, r := p.Validate(cfg, in.Claim)
		if r == "" && st.totalExcept(h)+eff > 1+totalEpsilon {
			r = reject.ClaimExceedsAvailable
		}
		if r != "" {
			out.Emit(ClaimRejected{Holder: h, Reason: r})
			return
		}
		st.Claims[h] = eff
		out.Emit(ClaimGranted{Holder: h, Effective: eff})
	case ActionRelease:
		s, ok := st.Claims[h]
		if !ok {
			out.Emit(ClaimRejected{Holder: h, Reason: reject.UnknownHolder})
			return
		}
		delete(st.Claims, h)
		out.Emit(ClaimReleased{Holder: h, Strength: s})
	default:
		out.Emit(ClaimRejected{Holder: h, Reason: reject.UnknownAction})
	}
}
