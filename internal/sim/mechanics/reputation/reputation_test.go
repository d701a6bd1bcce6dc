package reputation

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
)

func TestExponentialDecayWithinBounds(t *testing.T) {
	type decaying = Mechanic[LinearChange, ExponentialDecay, HardClamp]
	cfg := Config{Min: 0, Max: 100, DecayRate: 0.9}
	st := NewState(100)
	buf := emit.NewBuffer[Event]()
	decaying{}.Step(cfg, &st, Input{Elapsed: 2}, buf)
	if math.Abs(st.Value-81) > 1e-9 {
		t.Fatalf("expected 81, got %v", st.Value)
	}
	want := []Event{Changed{Old: 100, New: 81, Delta: -19}}
	if diff := cmp.Diff(want, buf.Events(), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("events mismatch:\n%s", diff)
	}
}

func TestClampAndBandEvents(t *testing.T) {
	cfg := DefaultConfig()
	st := NewState(50)
	buf := emit.NewBuffer[Event]()
	Default{}.Step(cfg, &st, Input{Delta: 80}, buf)
	want := []Event{
		Changed{Old: 50, New: 100, Delta: 50},
		Clamped{At: BoundMax, Value: 100},
		ThresholdCrossed{OldBand: "FRIENDLY", NewBand: "ALLIED"},
	}
	if diff := cmp.Diff(want, buf.Events()); diff != "" {
		t.Fatalf("events mismatch:\n%s", diff)
	}
}

func TestChangedAlwaysEmitted(t *testing.T) {
	st := NewState(0)
	buf := emit.NewBuffer[Event]()
	Default{}.Step(DefaultConfig(), &st, Input{}, buf)
	if diff := cmp.Diff([]Event{Changed{}}, buf.Events()); diff != "" {
		t.Fatalf("events mismatch:\n%s", diff)
	}
}

func TestScoreFloorsAtZero(t *testing.T) {
	st := NewState(3)
	buf := emit.NewBuffer[Event]()
	Score{}.Step(Config{}, &st, Input{Delta: -10}, buf)
	want := []Event{Changed{Old: 3, New: 0, Delta: -3}, Clamped{At: BoundMin, Value: 0}}
	if diff := cmp.Diff(want, buf.Events()); diff != "" {
		t.Fatalf("events mismatch:\n%s", diff)
	}
	Score{}.Step(Config{}, &st, Input{Delta: 1e6}, buf)
	if st.Value != 1e6 {
		t.Fatalf("score must be open above, got %v", st.Value)
	}
}

func TestClampIdempotent(t *testing.T) {
	cfg := Config{Min: -5, Max: 5}
	for _, x := range []float64{-100, -5, -1, 0, 3, 5, 42} {
		for name, c := range map[string]ClampPolicy{"hard": HardClamp{}, "zero": ZeroClamp{}, "none": NoClamp{}} {
			once, _, _ := c.Clamp(x, cfg)
			twice, _, again := c.Clamp(once, cfg)
			if once != twice || again {
				t.Fatalf("%s clamp not idempotent at %v: %v then %v", name, x, once, twice)
			}
		}
		if v, _, _ := (HardClamp{}).Clamp(x, cfg); v < cfg.Min || v > cfg.Max {
			t.Fatalf("hard clamp escaped bounds at %v: %v", x, v)
		}
		if v, _, _ := (NoClamp{}).Clamp(x, cfg); v != x {
			t.Fatalf("no clamp changed %v to %v", x, v)
		}
	}
}

func TestLinearDecayStopsAtNeutral(t *testing.T) {
	cfg := Config{Neutral: 10, DecayRate: 4}
	if v := (LinearDecay{}).Decay(15, 2, cfg); v != 10 {
		t.Fatalf("expected neutral, got %v", v)
	}
	if v := (LinearDecay{}).Decay(0, 1, cfg); v != 4 {
		t.Fatalf("expected 4, got %v", v)
	}
}

func TestDiminishingChange(t *testing.T) {
	cfg := Config{Min: 0, Max: 100}
	if v := (DiminishingChange{}).Change(50, 10, cfg); v != 55 {
		t.Fatalf("expected half the gain at midpoint, got %v", v)
	}
	if v := (DiminishingChange{}).Change(100, 10, cfg); v != 100 {
		t.Fatalf("expected no gain at max, got %v", v)
	}
	if v := (DiminishingChange{}).Change(20, -10, cfg); v != 18 {
		t.Fatalf("expected damped loss near min, got %v", v)
	}
}

func TestBandOf(t *testing.T) {
	cfg := DefaultConfig()
	cases := map[float64]string{-150: "", -100: "HOSTILE", -10: "NEUTRAL", 9.9: "NEUTRAL", 10: "FRIENDLY", 100: "ALLIED"}
	for v, want := range cases {
		if got := cfg.BandOf(v); got != want {
			t.Fatalf("band of %v: expected %q, got %q", v, want, got)
		}
	}
}

func TestStandingDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	a, b := NewState(12), NewState(12)
	ea, eb := emit.NewBuffer[Event](), emit.NewBuffer[Event]()
	for _, in := range []Input{{Delta: 30, Elapsed: 1}, {Delta: -70, Elapsed: 3}, {Delta: 5}} {
		Standing{}.Step(cfg, &a, in, ea)
		Standing{}.Step(cfg, &b, in, eb)
	}
	if diff := cmp.Diff(ea.Events(), eb.Events()); diff != "" {
		t.Fatalf("events diverged:\n%s", diff)
	}
	if a != b {
		t.Fatalf("states diverged")
	}
}
