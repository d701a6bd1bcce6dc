package journal

import (
	"sync"

	"github.com/ynishi/issun-sub004/internal/protocol"
	"github.com/ynishi/issun-sub004/internal/sim/orchestrate"
)

// Clock supplies the tick stamped on journaled events.
type Clock interface {
	Tick() uint64
}

// TickCounter is a Clock the host advances by hand.
type TickCounter struct {
	mu sync.Mutex
	n  uint64
}

func (c *TickCounter) Tick() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func (c *TickCounter) Advance() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}

// Sink journals the events of one family. Emit cannot fail, so the first
// write error is kept and later events are dropped; check Err.
type Sink[E protocol.Event] struct {
	w      *Writer
	family string
	entity string
	clock  Clock

	mu  sync.Mutex
	n   uint64
	err error
}

func NewSink[E protocol.Event](w *Writer, family string, clock Clock) *Sink[E] {
	return &Sink[E]{w: w, family: family, clock: clock}
}

// For returns a sink that stamps every event with entity.
func (s *Sink[E]) For(entity string) *Sink[E] {
	return &Sink[E]{w: s.w, family: s.family, entity: entity, clock: s.clock}
}

func (s *Sink[E]) Emit(e E) { s.write(s.entity, e) }

func (s *Sink[E]) write(entity string, e E) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	var tick uint64
	if s.clock != nil {
		tick = s.clock.Tick()
	}
	env, err := protocol.Wrap(s.w.Run(), tick, s.family, entity, e)
	if err == nil {
		_, err = s.w.Append(env)
	}
	if err != nil {
		s.err = err
		s.w.log.Warn("journal write failed", "family", s.family, "kind", e.Kind(), "err", err)
		return
	}
	s.n++
}

// Written counts journaled events.
func (s *Sink[E]) Written() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

func (s *Sink[E]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Tagged adapts the sink to orchestrate output, using the tag as entity.
func (s *Sink[E]) Tagged() TaggedSink[E] { return TaggedSink[E]{s} }

type TaggedSink[E protocol.Event] struct{ s *Sink[E] }

func (t TaggedSink[E]) Emit(e orchestrate.Tagged[E]) { t.s.write(e.Entity, e.Event) }
