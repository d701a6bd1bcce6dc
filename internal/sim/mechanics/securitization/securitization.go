// Package securitization issues securities against locked collateral.
//
// Every operation is checked against the freeze flag and the backing ratio
// before anything changes; a refused operation leaves the state untouched
// and emits OperationRejected with a reject.Reason.
package securitization

import (
	"math"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
	"github.com/ynishi/issun-sub004/internal/sim/reject"
)

type Action string

const (
	ActionLock     Action = "LOCK"
	ActionIssue    Action = "ISSUE"
	ActionRedeem   Action = "REDEEM"
	ActionFreeze   Action = "FREEZE"
	ActionUnfreeze Action = "UNFREEZE"
)

type Config struct {
	// MinBackingRatio is the collateral/issued ratio an issue must keep.
	MinBackingRatio float64 `json:"min_backing_ratio" yaml:"min_backing_ratio"`
}

func DefaultConfig() Config { return Config{MinBackingRatio: 1.0} }

type State struct {
	Collateral float64 `json:"collateral" yaml:"collateral"`
	Issued     float64 `json:"issued" yaml:"issued"`
	// IsLocked freezes the asset: only Unfreeze is accepted.
	IsLocked bool `json:"is_locked" yaml:"is_locked"`
}

// BackingRatio is collateral/issued, +Inf while nothing is issued.
func (s State) BackingRatio() float64 {
	if s.Issued <= 0 {
		return math.Inf(1)
	}
	return s.Collateral / s.Issued
}

func (s State) CanOperate() bool { return !s.IsLocked }

// Input is one requested operation. Amount is ignored by Freeze and
// Unfreeze.
type Input struct {
	Action Action  `json:"action"`
	Amount float64 `json:"amount,omitempty"`
}

type Event interface {
	Kind() string
}

type AssetLocked struct {
	Amount     float64 `json:"amount"`
	Collateral float64 `json:"collateral"`
}

type SecuritiesIssued struct {
	Amount       float64 `json:"amount"`
	Issued       float64 `json:"issued"`
	BackingRatio float64 `json:"backing_ratio"`
}

type SecuritiesRedeemed struct {
	Amount             float64 `json:"amount"`
	CollateralReleased float64 `json:"collateral_released"`
	Issued             float64 `json:"issued"`
}

type Frozen struct{}

type Unfrozen struct{}

type OperationRejected struct {
	Action Action        `json:"action"`
	Reason reject.Reason `json:"reason"`
}

func (AssetLocked) Kind() string        { return "ASSET_LOCKED" }
func (SecuritiesIssued) Kind() string   { return "SECURITIES_ISSUED" }
func (SecuritiesRedeemed) Kind() string { return "SECURITIES_REDEEMED" }
func (Frozen) Kind() string             { return "FROZEN" }
func (Unfrozen) Kind() string           { return "UNFROZEN" }
func (OperationRejected) Kind() string  { return "OPERATION_REJECTED" }

type Mechanic struct{}

func (Mechanic) Step(cfg Config, st *State, in Input, out emit.Emitter[Event]) {
	if err := check(cfg, *st, in); err != "" {
		out.Emit(OperationRejected{Action: in.Action, Reason: err})
		return
	}
	switch in.Action {
	case ActionLock:
		st.Collateral += in.Amount
		out.Emit(AssetLocked{Amount: in.Amount, Collateral: st.Collateral})
	case ActionIssue:
		st.Issued += in.Amount
		out.Emit(SecuritiesIssued{Amount: in.Amount, Issued: st.Issued, BackingRatio: st.BackingRatio()})
	case ActionRedeem:
		released := st.Collateral * in.Amount / st.Issued
		st.Issued -= in.Amount
		st.Collateral -= released
		if st.Issued == 0 {
			released += st.Collateral
			st.Collateral = 0
		}
		out.Emit(SecuritiesRedeemed{Amount: in.Amount, CollateralReleased: released, Issued: st.Issued})
	case ActionFreeze:
		st.IsLocked = true
		out.Emit(Frozen{})
	case ActionUnfreeze:
		st.IsLocked = false
		out.Emit(Unfrozen{})
	}
}

// Check reports why in would be refused, or nil.
func Check(cfg Config, st State, in Input) error {
	if r := check(cfg, st, in); r != "" {
		return r
	}
	return nil
}

func check(cfg Config, st State, in Input) reject.Reason {
	switch in.Action {
	case ActionUnfreeze:
		if !st.IsLocked {
			return reject.AssetNotFrozen
		}
		return ""
	case ActionFreeze:
		if st.IsLocked {
			return reject.AssetFrozen
		}
		return ""
	case ActionLock, ActionIssue, ActionRedeem:
	default:
		return reject.UnknownAction
	}
	if !st.CanOperate() {
		return reject.AssetFrozen
	}
	if !(in.Amount > 0) || math.IsInf(in.Amount, 0) {
		return reject.InvalidAmount
	}
	switch in.Action {
	case ActionIssue:
		if st.Collateral/(st.Issued+in.Amount) < cfg.MinBackingRatio {
			return reject.InsufficientBacking
		}
	case ActionRedeem:
		if in.Amount > st.Issued {
			return reject.ExceedsIssued
		}
	}
	return ""
}
