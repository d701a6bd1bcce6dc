package economy

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
)

type Action string

const (
	ActionDeposit  Action = "DEPOSIT"
	ActionWithdraw Action = "WITHDRAW"
	ActionConvert  Action = "CONVERT"
)

// Input is one wallet operation. To is read by Convert.
type Input struct {
	Action   Action          `json:"action"`
	Currency Currency        `json:"currency"`
	To       Currency        `json:"to,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
}

type Event interface {
	Kind() string
}

type Deposited struct {
	Currency Currency        `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	Balance  decimal.Decimal `json:"balance"`
}

type Withdrawn struct {
	Currency Currency        `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	Balance  decimal.Decimal `json:"balance"`
}

type Converted struct {
	From     Currency        `json:"from"`
	To       Currency        `json:"to"`
	Paid     decimal.Decimal `json:"paid"`
	Received decimal.Decimal `json:"received"`
}

// Failed carries a stable code for the sentinel the operation hit.
type Failed struct {
	Action Action `json:"action"`
	Code   string `json:"code"`
}

func (Deposited) Kind() string { return "DEPOSITED" }
func (Withdrawn) Kind() string { return "WITHDRAWN" }
func (Converted) Kind() string { return "CONVERTED" }
func (Failed) Kind() string    { return "ECONOMY_FAILED" }

// Code maps an economy error to a stable string.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS"
	case errors.Is(err, ErrNoExchangeRate):
		return "NO_EXCHANGE_RATE"
	case errors.Is(err, ErrInvalidAmount):
		return "INVALID_AMOUNT"
	}
	return "UNKNOWN"
}

// Ledger is the step form of the wallet operations, for hosts that drive
// the economy through the same event stream as the other mechanics.
type Ledger struct{}

func (Ledger) Step(cfg Config, w *Wallet, in Input, out emit.Emitter[Event]) {
	var err error
	switch in.Action {
	case ActionDeposit:
		if err = w.Deposit(in.Currency, in.Amount); err == nil {
			out.Emit(Deposited{Currency: in.Currency, Amount: in.Amount, Balance: w.Balance(in.Currency)})
		}
	case ActionWithdraw:
		if err = w.Withdraw(in.Currency, in.Amount); err == nil {
			out.Emit(Withdrawn{Currency: in.Currency, Amount: in.Amount, Balance: w.Balance(in.Currency)})
		}
	case ActionConvert:
		var got decimal.Decimal
		if got, err = w.Convert(cfg, in.Currency, in.To, in.Amount); err == nil {
			out.Emit(Converted{From: in.Currency, To: in.To, Paid: in.Amount, Received: got})
		}
	default:
		out.Emit(Failed{Action: in.Action, Code: "UNKNOWN_ACTION"})
		return
	}
	if err != nil {
		out.Emit(Failed{Action: in.Action, Code: Code(err)})
	}
}
