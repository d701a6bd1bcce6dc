package entropy

import (
	"context"
	"log/slog"

	"github.com/ynishi/issun-sub004/internal/logging"
	"github.com/ynishi/issun-sub004/internal/sim/emit"
	"github.com/ynishi/issun-sub004/internal/sim/orchestrate"
)

// System is the bulk updater: one Step per entity per Update, a bounded
// history of tagged events and the orchestrate metrics.
type System[D DecayModel, S StatusPolicy] struct {
	Config Config

	runner  orchestrate.Runner[Config, State, Input, Event]
	history *emit.Ring[orchestrate.Tagged[Event]]
	log     *slog.Logger
}

func NewSystem[D DecayModel, S StatusPolicy](cfg Config, logger *slog.Logger) *System[D, S] {
	var m Mechanic[D, S]
	return &System[D, S]{
		Config: cfg,
		runner: orchestrate.Runner[Config, State, Input, Event]{
			Step: m.Step,
			Destroyed: func(e Event) bool {
				_, ok := e.(EntityDestroyed)
				return ok
			},
			Progress: func(e Event) float64 {
				if d, ok := e.(DecayApplied); ok {
					return d.Amount
				}
				return 0
			},
		},
		history: emit.NewRing[orchestrate.Tagged[Event]](cfg.MaxEvents),
		log:     logging.Or(logger, "entropy"),
	}
}

// Update steps every entity in slice order with the same input. Events go to
// out (which may be nil) and to the history.
func (s *System[D, S]) Update(entities []orchestrate.Entity[State], in Input, out emit.Emitter[orchestrate.Tagged[Event]]) {
	before := s.runner.Metrics.EntitiesDestroyed
	s.runner.ApplyAll(s.Config, entities, func(*orchestrate.Entity[State]) Input { return in }, s.sink(out))
	s.logPass(len(entities), before)
}

// UpdateParallel is Update across shards. The event order matches Update.
func (s *System[D, S]) UpdateParallel(ctx context.Context, entities []orchestrate.Entity[State], in Input, out emit.Emitter[orchestrate.Tagged[Event]], shards int) error {
	before := s.runner.Metrics.EntitiesDestroyed
	if err := s.runner.ApplyParallel(ctx, s.Config, entities, func(*orchestrate.Entity[State]) Input { return in }, s.sink(out), shards); err != nil {
		s.log.Warn("entropy pass aborted", "err", err)
		return err
	}
	s.logPass(len(entities), before)
	return nil
}

func (s *System[D, S]) sink(out emit.Emitter[orchestrate.Tagged[Event]]) emit.Emitter[orchestrate.Tagged[Event]] {
	if out == nil {
		return s.history
	}
	return emit.Tee[orchestrate.Tagged[Event]]{s.history, out}
}

func (s *System[D, S]) logPass(n int, destroyedBefore uint64) {
	s.log.Debug("entropy pass",
		"entities", n,
		"destroyed", s.runner.Metrics.EntitiesDestroyed-destroyedBefore,
		"took", s.runner.Metrics.LastUpdateDuration,
	)
}

func (s *System[D, S]) Metrics() orchestrate.Metrics { return s.runner.Metrics }

// History returns the retained events, oldest first.
func (s *System[D, S]) History() []orchestrate.Tagged[Event] { return s.history.Events() }

// Dropped counts events trimmed from the history by MaxEvents.
func (s *System[D, S]) Dropped() uint64 { return s.history.Dropped() }

// Destroyed lists ids whose step emitted EntityDestroyed, in history order.
func (s *System[D, S]) Destroyed() []string {
	var ids []string
	for _, te := range s.history.Events() {
		if _, ok := te.Event.(EntityDestroyed); ok {
			ids = append(ids, te.Entity)
		}
	}
	return ids
}
