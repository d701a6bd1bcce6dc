package economy

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDepositWithdraw(t *testing.T) {
	w := NewWallet()
	if err := w.Deposit("gold", d("10.10")); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := w.Withdraw("gold", d("0.1")); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if !w.Balance("gold").Equal(d("10")) {
		t.Fatalf("expected exactly 10, got %s", w.Balance("gold"))
	}
	err := w.Withdraw("gold", d("10.01"))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if err := w.Deposit("gold", d("-1")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestTransferIsAllOrNothing(t *testing.T) {
	a, b := NewWallet(), NewWallet()
	_ = a.Deposit("silver", d("5"))
	if err := Transfer(&a, &b, "silver", d("6")); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if err := Transfer(&a, &b, "silver", d("2")); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if !a.Balance("silver").Equal(d("3")) || !b.Balance("silver").Equal(d("2")) {
		t.Fatalf("unexpected balances %s %s", a.Balance("silver"), b.Balance("silver"))
	}
}

func TestConvertWithFeeAndInverse(t *testing.T) {
	cfg := Config{Rates: []Rate{{From: "gold", To: "silver", Rate: d("100")}}, Fee: d("0.01"), Places: 4}
	w := NewWallet()
	_ = w.Deposit("gold", d("2"))
	got, err := w.Convert(cfg, "gold", "silver", d("1.5"))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !got.Equal(d("148.5")) {
		t.Fatalf("expected 148.5 silver, got %s", got)
	}
	back, err := Quote(cfg, "silver", "gold", d("100"))
	if err != nil || !back.Equal(d("0.99")) {
		t.Fatalf("expected inverse quote 0.99, got %s %v", back, err)
	}
	if _, err := Quote(cfg, "gold", "gems", d("1")); !errors.Is(err, ErrNoExchangeRate) {
		t.Fatalf("expected ErrNoExchangeRate, got %v", err)
	}
}

func TestLedgerEvents(t *testing.T) {
	w := NewWallet()
	buf := emit.NewBuffer[Event]()
	for _, in := range []Input{
		{Action: ActionDeposit, Currency: "gold", Amount: d("3")},
		{Action: ActionWithdraw, Currency: "gold", Amount: d("4")},
		{Action: ActionConvert, Currency: "gold", To: "gems", Amount: d("1")},
		{Action: "STEAL", Currency: "gold", Amount: d("1")},
	} {
		Ledger{}.Step(DefaultConfig(), &w, in, buf)
	}
	var kinds []string
	for _, ev := range buf.Events() {
		if f, ok := ev.(Failed); ok {
			kinds = append(kinds, f.Code)
			continue
		}
		kinds = append(kinds, ev.Kind())
	}
	want := []string{"DEPOSITED", "INSUFFICIENT_FUNDS", "NO_EXCHANGE_RATE", "UNKNOWN_ACTION"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("ledger mismatch:\n%s", diff)
	}
}
