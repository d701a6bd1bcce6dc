// Package emit holds the event sinks that mechanic kernels write to.
//
// A kernel only ever calls Emit; it never reads, counts or drains what it
// emitted. Hosts pick the sink: Buffer for tests, Bus for a tick loop that
// drains between ticks, Ring to bound history, Locked when several goroutines
// share one sink.
package emit

import "sync"

type Emitter[E any] interface {
	Emit(E)
}

// Func adapts a plain function to an Emitter.
type Func[E any] func(E)

func (f Func[E]) Emit(e E) { f(e) }

type Discard[E any] struct{}

func (Discard[E]) Emit(E) {}

// Buffer appends every event in emission order.
type Buffer[E any] struct {
	events []E
}

func NewBuffer[E any]() *Buffer[E] { return &Buffer[E]{} }

func (b *Buffer[E]) Emit(e E) { b.events = append(b.events, e) }

func (b *Buffer[E]) Events() []E { return b.events }

func (b *Buffer[E]) Len() int { return len(b.events) }

// Drain returns the buffered events and empties the buffer.
func (b *Buffer[E]) Drain() []E {
	out := b.events
	b.events = nil
	return out
}

func (b *Buffer[E]) Reset() { b.events = b.events[:0] }

// Bus is a double-buffered sink. Kernels write into the back buffer while the
// host reads the front one; Swap publishes the back buffer at a tick boundary.
type Bus[E any] struct {
	front []E
	back  []E
}

func NewBus[E any]() *Bus[E] { return &Bus[E]{} }

func (b *Bus[E]) Emit(e E) { b.back = append(b.back, e) }

// Swap makes the events written since the previous Swap readable and returns
// them. The returned slice stays valid until the next Swap.
func (b *Bus[E]) Swap() []E {
	b.front, b.back = b.back, b.front[:0]
	return b.front
}

func (b *Bus[E]) Front() []E { return b.front }

func (b *Bus[E]) Pending() int { return len(b.back) }

// Ring keeps only the most recent max events. A max <= 0 keeps everything.
type Ring[E any] struct {
	max     int
	events  []E
	dropped uint64
}

func NewRing[E any](max int) *Ring[E] { return &Ring[E]{max: max} }

func (r *Ring[E]) Emit(e E) {
	r.events = append(r.events, e)
	if r.max > 0 && len(r.events) > r.max {
		over := len(r.events) - r.max
		r.dropped += uint64(over)
		r.events = append(r.events[:0], r.events[over:]...)
	}
}

func (r *Ring[E]) Events() []E { return r.events }

// Dropped counts events trimmed off the front since construction.
func (r *Ring[E]) Dropped() uint64 { return r.dropped }

// Locked serializes Emit calls onto an inner sink.
type Locked[E any] struct {
	mu    sync.Mutex
	inner Emitter[E]
}

func NewLocked[E any](inner Emitter[E]) *Locked[E] { return &Locked[E]{inner: inner} }

func (l *Locked[E]) Emit(e E) {
	l.mu.Lock()
	l.inner.Emit(e)
	l.mu.Unlock()
}

// Map converts events before forwarding them, e.g. to tag them with the
// entity they belong to.
type Map[From, To any] struct {
	inner Emitter[To]
	conv  func(From) To
}

func NewMap[From, To any](inner Emitter[To], conv func(From) To) Map[From, To] {
	return Map[From, To]{inner: inner, conv: conv}
}

func (m Map[From, To]) Emit(e From) { m.inner.Emit(m.conv(e)) }

// Tee forwards every event to each sink in order.
type Tee[E any] []Emitter[E]

func (t Tee[E]) Emit(e E) {
	for _, s := range t {
		if s != nil {
			s.Emit(e)
		}
	}
}
