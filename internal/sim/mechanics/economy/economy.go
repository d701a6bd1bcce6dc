// Package economy keeps multi-currency wallets with exact decimal balances
// and converts between currencies through a fixed exchange table.
package economy

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoExchangeRate    = errors.New("no exchange rate")
	ErrInvalidAmount     = errors.New("invalid amount")
)

type Currency string

// Rate converts one unit of From into Rate units of To.
type Rate struct {
	From Currency        `json:"from" yaml:"from"`
	To   Currency        `json:"to" yaml:"to"`
	Rate decimal.Decimal `json:"rate" yaml:"rate"`
}

type Config struct {
	Rates []Rate `json:"rates" yaml:"rates"`
	// Fee is the fraction of a conversion kept by the exchange.
	Fee decimal.Decimal `json:"fee" yaml:"fee"`
	// Places is the rounding precision of converted amounts.
	Places int32 `json:"places" yaml:"places"`
}

func DefaultConfig() Config { return Config{Places: 8} }

// RateFor finds from->to. A missing direct rate falls back to the inverse of
// to->from, rounded to Places.
func (c Config) RateFor(from, to Currency) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	for _, r := range c.Rates {
		if r.From == from && r.To == to && r.Rate.IsPositive() {
			return r.Rate, nil
		}
	}
	for _, r := range c.Rates {
		if r.From == to && r.To == from && r.Rate.IsPositive() {
			return decimal.NewFromInt(1).DivRound(r.Rate, c.Places), nil
		}
	}
	return decimal.Zero, fmt.Errorf("%s->%s: %w", from, to, ErrNoExchangeRate)
}

type Wallet struct {
	Balances map[Currency]decimal.Decimal `json:"balances" yaml:"balances"`
}

func NewWallet() Wallet { return Wallet{Balances: map[Currency]decimal.Decimal{}} }

func (w Wallet) Balance(c Currency) decimal.Decimal {
	return w.Balances[c]
}

// Currencies returns held currencies in ascending order.
func (w Wallet) Currencies() []Currency {
	out := make([]Currency, 0, len(w.Balances))
	for c := range w.Balances {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

func checkAmount(amt decimal.Decimal) error {
	if !amt.IsPositive() {
		return fmt.Errorf("%s: %w", amt, ErrInvalidAmount)
	}
	return nil
}

func (w *Wallet) Deposit(c Currency, amt decimal.Decimal) error {
	if err := checkAmount(amt); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	if w.Balances == nil {
		w.Balances = map[Currency]decimal.Decimal{}
	}
	w.Balances[c] = w.Balances[c].Add(amt)
	return nil
}

func (w *Wallet) Withdraw(c Currency, amt decimal.Decimal) error {
	if err := checkAmount(amt); err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}
	have := w.Balances[c]
	if have.LessThan(amt) {
		return fmt.Errorf("withdraw %s %s (have %s): %w", amt, c, have, ErrInsufficientFunds)
	}
	w.Balances[c] = have.Sub(amt)
	return nil
}

// Transfer moves amt of c between wallets. Nothing changes on error.
func Transfer(from, to *Wallet, c Currency, amt decimal.Decimal) error {
	if err := from.Withdraw(c, amt); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	if err := to.Deposit(c, amt); err != nil {
		from.Balances[c] = from.Balances[c].Add(amt)
		return fmt.Errorf("transfer: %w", err)
	}
	return nil
}

// Quote is what converting amt of from would pay out in to, after the fee.
func Quote(cfg Config, from, to Currency, amt decimal.Decimal) (decimal.Decimal, error) {
	if err := checkAmount(amt); err != nil {
		return decimal.Zero, fmt.Errorf("quote: %w", err)
	}
	rate, err := cfg.RateFor(from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("quote: %w", err)
	}
	gross := amt.Mul(rate)
	net := gross.Sub(gross.Mul(cfg.Fee))
	return net.RoundFloor(cfg.Places), nil
}

// Convert withdraws amt of from and deposits its quote in to.
func (w *Wallet) Convert(cfg Config, from, to Currency, amt decimal.Decimal) (decimal.Decimal, error) {
	out, err := Quote(cfg, from, to, amt)
	if err != nil {
		return decimal.Zero, fmt.Errorf("convert: %w", err)
	}
	if !out.IsPositive() {
		return decimal.Zero, fmt.Errorf("convert %s %s: %w", amt, from, ErrInvalidAmount)
	}
	if err := w.Withdraw(from, amt); err != nil {
		return decimal.Zero, fmt.Errorf("convert: %w", err)
	}
	w.Balances[to] = w.Balances[to].Add(out)
	return out, nil
}
