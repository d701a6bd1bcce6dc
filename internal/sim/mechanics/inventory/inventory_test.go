package inventory

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
	"github.com/ynishi/issun-sub004/internal/sim/reject"
)

func TestSlotsCapacity(t *testing.T) {
	cfg := Config{Capacity: 2, StackSize: 10}
	st := NewState()
	buf := emit.NewBuffer[Event]()
	for _, in := range []Input{
		{Action: ActionAdd, Item: "arrow", Count: 15},
		{Action: ActionAdd, Item: "arrow", Count: 5},
		{Action: ActionAdd, Item: "bread", Count: 1},
		{Action: ActionRemove, Item: "arrow", Count: 20},
		{Action: ActionAdd, Item: "bread", Count: 1},
	} {
		Slots{}.Step(cfg, &st, in, buf)
	}
	want := []Event{
		ItemAdded{Item: "arrow", Count: 15, Total: 15},
		ItemAdded{Item: "arrow", Count: 5, Total: 20},
		OperationRejected{Action: ActionAdd, Item: "bread", Reason: reject.CapacityExceeded},
		ItemRemoved{Item: "arrow", Count: 20, Total: 0},
		ItemAdded{Item: "bread", Count: 1, Total: 1},
	}
	if diff := cmp.Diff(want, buf.Events()); diff != "" {
		t.Fatalf("events mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"bread"}, st.IDs()); diff != "" {
		t.Fatalf("items mismatch:\n%s", diff)
	}
}

func TestWeightedCapacity(t *testing.T) {
	cfg := Config{Capacity: 10, Weights: map[string]float64{"ore": 3, "feather": 0.1}}
	st := NewState()
	buf := emit.NewBuffer[Event]()
	Weighted{}.Step(cfg, &st, Input{Action: ActionAdd, Item: "ore", Count: 3}, buf)
	Weighted{}.Step(cfg, &st, Input{Action: ActionAdd, Item: "ore", Count: 1}, buf)
	Weighted{}.Step(cfg, &st, Input{Action: ActionAdd, Item: "feather", Count: 10}, buf)
	if got := (Weighted{}).Used(cfg, st); got != 10 {
		t.Fatalf("expected 10 used, got %v", got)
	}
	if r, ok := buf.Events()[1].(OperationRejected); !ok || r.Reason != reject.CapacityExceeded {
		t.Fatalf("expected the second ore to be rejected, got %v", buf.Events()[1])
	}
}

func TestRemoveRejections(t *testing.T) {
	st := State{Items: map[string]int{"gem": 2}}
	buf := emit.NewBuffer[Event]()
	for _, in := range []Input{
		{Action: ActionRemove, Item: "gold", Count: 1},
		{Action: ActionRemove, Item: "gem", Count: 3},
		{Action: ActionRemove, Item: "gem", Count: 0},
		{Action: "DROP", Item: "gem", Count: 1},
	} {
		Unlimited{}.Step(DefaultConfig(), &st, in, buf)
	}
	var reasons []reject.Reason
	for _, ev := range buf.Events() {
		reasons = append(reasons, ev.(OperationRejected).Reason)
	}
	want := []reject.Reason{reject.ItemNotFound, reject.NotEnoughItems, reject.InvalidAmount, reject.UnknownAction}
	if diff := cmp.Diff(want, reasons); diff != "" {
		t.Fatalf("reasons mismatch:\n%s", diff)
	}
	if st.Items["gem"] != 2 {
		t.Fatalf("rejections must not touch state")
	}
}
