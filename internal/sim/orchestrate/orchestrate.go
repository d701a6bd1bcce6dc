// Package orchestrate bundles "one step per entity" iteration around a
// mechanic kernel. It never changes what a step does; it fixes the order,
// tags events with their entity and keeps counters.
package orchestrate

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ynishi/issun-sub004/internal/sim/emit"
)

// Entity pairs a host id with the state the kernel mutates.
type Entity[S any] struct {
	ID    string `json:"id"`
	State S      `json:"state"`
}

// Tagged is an event attributed to the entity whose step produced it.
type Tagged[E any] struct {
	Entity string `json:"entity"`
	Event  E      `json:"event"`
}

type Metrics struct {
	EntitiesProcessed    uint64        `json:"entities_processed"`
	EntitiesDestroyed    uint64        `json:"entities_destroyed"`
	EventsEmitted        uint64        `json:"events_emitted"`
	TotalProgressApplied float64       `json:"total_progress_applied"`
	LastUpdateDuration   time.Duration `json:"last_update_duration"`
	Passes               uint64        `json:"passes"`
}

// Runner steps a collection of entities with one kernel. Step is usually a
// method value such as combat.Default{}.Step.
type Runner[C, S, I, E any] struct {
	Step func(C, *S, I, emit.Emitter[E])

	// Destroyed, when set, marks events that count toward EntitiesDestroyed.
	Destroyed func(E) bool
	// Progress, when set, extracts the amount an event adds to
	// TotalProgressApplied.
	Progress func(E) float64

	Metrics Metrics
	Now     func() time.Time
}

func (r *Runner[C, S, I, E]) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner[C, S, I, E]) observe(e E) {
	r.Metrics.EventsEmitted++
	if r.Destroyed != nil && r.Destroyed(e) {
		r.Metrics.EntitiesDestroyed++
	}
	if r.Progress != nil {
		r.Metrics.TotalProgressApplied += r.Progress(e)
	}
}

// ApplyAll steps every entity in slice order. input builds the per-entity
// Input; it may return the same value for all entities.
func (r *Runner[C, S, I, E]) ApplyAll(cfg C, entities []Entity[S], input func(*Entity[S]) I, out emit.Emitter[Tagged[E]]) {
	start := r.now()
	for i := range entities {
		ent := &entities[i]
		sink := emit.Func[E](func(e E) {
			r.observe(e)
			out.Emit(Tagged[E]{Entity: ent.ID, Event: e})
		})
		r.Step(cfg, &ent.State, input(ent), sink)
		r.Metrics.EntitiesProcessed++
	}
	r.Metrics.Passes++
	r.Metrics.LastUpdateDuration = r.now().Sub(start)
}

// ApplyParallel steps shards of entities concurrently. Every shard writes to
// its own buffer and the buffers are replayed into out in entity order, so the
// event sequence matches ApplyAll. input must be safe to call concurrently.
// Cancellation is checked between entities; on cancellation no events reach
// out and the context error is returned, though states of entities already
// stepped stay mutated.
func (r *Runner[C, S, I, E]) ApplyParallel(ctx context.Context, cfg C, entities []Entity[S], input func(*Entity[S]) I, out emit.Emitter[Tagged[E]], shards int) error {
	start := r.now()
	if shards < 1 {
		shards = 1
	}
	if shards > len(entities) {
		shards = len(entities)
	}
	if shards == 0 {
		r.Metrics.Passes++
		r.Metrics.LastUpdateDuration = r.now().Sub(start)
		return nil
	}

	per := (len(entities) + shards - 1) / shards
	buffers := make([]*emit.Buffer[Tagged[E]], shards)
	g, gctx := errgroup.WithContext(ctx)
	for s := 0; s < shards; s++ {
		lo := s * per
		hi := min(lo+per, len(entities))
		buf := emit.NewBuffer[Tagged[E]]()
		buffers[s] = buf
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				ent := &entities[i]
				sink := emit.Func[E](func(e E) {
					buf.Emit(Tagged[E]{Entity: ent.ID, Event: e})
				})
				r.Step(cfg, &ent.State, input(ent), sink)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, buf := range buffers {
		for _, te := range buf.Events() {
			r.observe(te.Event)
			out.Emit(te)
		}
	}
	r.Metrics.EntitiesProcessed += uint64(len(entities))
	r.Metrics.Passes++
	r.Metrics.LastUpdateDuration = r.now().Sub(start)
	return nil
}

// Untag strips entity tags, preserving order.
func Untag[E any](events []Tagged[E]) []E {
	out := make([]E, len(events))
	for i, te := range events {
		out[i] = te.Event
	}
	return out
}
