package generation

import (
	"log/slog"

	"github.com/ynishi/issun-sub004/internal/logging"
	"github.com/ynishi/issun-sub004/internal/sim/emit"
	"github.com/ynishi/issun-sub004/internal/sim/orchestrate"
)

// System steps a collection of generating entities and keeps the last
// MaxEvents tagged events.
type System[G GrowthModel, S StatusPolicy] struct {
	Config Config

	runner  orchestrate.Runner[Config, State, Input, Event]
	history *emit.Ring[orchestrate.Tagged[Event]]
	log     *slog.Logger
}

func NewSystem[G GrowthModel, S StatusPolicy](cfg Config, logger *slog.Logger) *System[G, S] {
	var m Mechanic[G, S]
	return &System[G, S]{
		Config: cfg,
		runner: orchestrate.Runner[Config, State, Input, Event]{
			Step: m.Step,
			Destroyed: func(e Event) bool {
				_, ok := e.(EntityCompleted)
				return ok
			},
			Progress: func(e Event) float64 {
				if p, ok := e.(ProgressApplied); ok {
					return p.Amount
				}
				return 0
			},
		},
		history: emit.NewRing[orchestrate.Tagged[Event]](cfg.MaxEvents),
		log:     logging.Or(logger, "generation"),
	}
}

// Update steps each entity with the input built for it. Events reach out
// (when non-nil) and the history.
func (s *System[G, S]) Update(entities []orchestrate.Entity[State], input func(*orchestrate.Entity[State]) Input, out emit.Emitter[orchestrate.Tagged[Event]]) {
	sink := emit.Emitter[orchestrate.Tagged[Event]](s.history)
	if out != nil {
		sink = emit.Tee[orchestrate.Tagged[Event]]{s.history, out}
	}
	s.runner.ApplyAll(s.Config, entities, input, sink)
	s.log.Debug("generation pass",
		"entities", len(entities),
		"progress", s.runner.Metrics.TotalProgressApplied,
		"took", s.runner.Metrics.LastUpdateDuration,
	)
}

func (s *System[G, S]) Metrics() orchestrate.Metrics { return s.runner.Metrics }

func (s *System[G, S]) History() []orchestrate.Tagged[Event] { return s.history.Events() }

// Completed lists ids whose step emitted EntityCompleted, oldest first.
func (s *System[G, S]) Completed() []string {
	var ids []string
	for _, te := range s.history.Events() {
		if _, ok := te.Event.(EntityCompleted); ok {
			ids = append(ids, te.Entity)
		}
	}
	return ids
}

// Prune drops completed entities, the usual reaction to EntityCompleted.
func Prune(entities []orchestrate.Entity[State]) []orchestrate.Entity[State] {
	out := entities[:0]
	for _, e := range entities {
		if e.State.Status != StatusCompleted {
			out = append(out, e)
		}
	}
	return out
}
