// Package outbreak couples propagation pressure with the contagion state
// machine over one shared graph.
//
// Each Tick derives node severities from contagion phases, runs one
// propagation step, and feeds the nodes it infected into one contagion step.
// Propagation events are emitted before contagion events.
package outbreak

import (
	"log/slog"

	"github.com/ynishi/issun-sub004/internal/logging"
	"github.com/ynishi/issun-sub004/internal/sim/duration"
	"github.com/ynishi/issun-sub004/internal/sim/emit"
	"github.com/ynishi/issun-sub004/internal/sim/graph"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/contagion"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/propagation"
	"github.com/ynishi/issun-sub004/internal/sim/rng"
)

type Config struct {
	Propagation propagation.Config `json:"propagation" yaml:"propagation"`
	Contagion   contagion.Config   `json:"contagion" yaml:"contagion"`
	// Severity is the source strength of a node in each phase. Missing
	// phases are 0, i.e. not a source.
	Severity map[contagion.Phase]float64 `json:"severity" yaml:"severity"`
}

func DefaultConfig() Config {
	return Config{
		Propagation: propagation.DefaultConfig(),
		Contagion:   contagion.DefaultConfig(),
		Severity: map[contagion.Phase]float64{
			contagion.PhaseIncubating: 10,
			contagion.PhaseActive:     100,
		},
	}
}

type State struct {
	Tick      uint64            `json:"tick" yaml:"tick"`
	Pressure  propagation.State `json:"pressure" yaml:"pressure"`
	Contagion contagion.State   `json:"contagion" yaml:"contagion"`
}

func NewState() State {
	return State{Pressure: propagation.NewState(), Contagion: contagion.NewState()}
}

// Event is satisfied by both propagation and contagion events.
type Event interface {
	Kind() string
}

// Summary describes one tick.
type Summary struct {
	Tick        uint64                  `json:"tick"`
	Infected    []graph.NodeID          `json:"infected,omitempty"`
	Phases      map[contagion.Phase]int `json:"phases"`
	MaxPressure float64                 `json:"max_pressure"`
}

type Outbreak[P propagation.PressurePolicy, T propagation.TriggerPolicy] struct {
	Config Config
	Graph  *graph.Graph
	State  State

	log *slog.Logger
}

type Default = Outbreak[propagation.LinearPressure, propagation.ThresholdTrigger]

func New[P propagation.PressurePolicy, T propagation.TriggerPolicy](cfg Config, g *graph.Graph, logger *slog.Logger) *Outbreak[P, T] {
	return &Outbreak[P, T]{
		Config: cfg,
		Graph:  g,
		State:  NewState(),
		log:    logging.Or(logger, "outbreak"),
	}
}

// Seed infects nodes without aging anyone. Unknown nodes are ignored.
func (o *Outbreak[P, T]) Seed(out emit.Emitter[Event], nodes ...graph.NodeID) {
	known := make([]graph.NodeID, 0, len(nodes))
	for _, n := range nodes {
		if o.Graph != nil && o.Graph.HasNode(n) {
			known = append(known, n)
		}
	}
	contagion.Mechanic{}.Step(o.Config.Contagion, &o.State.Contagion, contagion.Input{
		TimeDelta:  o.Config.Contagion.Incubation.Zero(),
		Infections: known,
	}, forward[contagion.Event](out))
	o.log.Info("outbreak seeded", "nodes", len(known))
}

// Severities maps every source node to its phase severity.
func (o *Outbreak[P, T]) Severities() map[graph.NodeID]float64 {
	sev := make(map[graph.NodeID]float64, len(o.State.Contagion.Nodes))
	for n, ns := range o.State.Contagion.Nodes {
		if s := o.Config.Severity[ns.Phase]; s > 0 {
			sev[n] = s
		}
	}
	return sev
}

func (o *Outbreak[P, T]) Tick(dt duration.Duration, rand rng.Source, out emit.Emitter[Event]) Summary {
	var (
		pm       propagation.Mechanic[P, T]
		infected []graph.NodeID
	)
	o.State.Tick++

	collect := emit.Func[propagation.Event](func(e propagation.Event) {
		if inf, ok := e.(propagation.InitialInfection); ok {
			infected = append(infected, inf.Node)
		}
		if out != nil {
			out.Emit(e)
		}
	})
	pm.Step(o.Config.Propagation, &o.State.Pressure, propagation.Input{
		Severities: o.Severities(),
		Graph:      o.Graph,
		Rand:       rand,
	}, collect)

	contagion.Mechanic{}.Step(o.Config.Contagion, &o.State.Contagion, contagion.Input{
		TimeDelta:  dt,
		Infections: infected,
	}, forward[contagion.Event](out))

	sum := Summary{Tick: o.State.Tick, Infected: infected, Phases: map[contagion.Phase]int{}}
	for _, ns := range o.State.Contagion.Nodes {
		sum.Phases[ns.Phase]++
	}
	for _, p := range o.State.Pressure.NodePressures {
		sum.MaxPressure = max(sum.MaxPressure, p)
	}
	o.log.Debug("outbreak tick",
		"tick", sum.Tick,
		"infected", len(infected),
		"active", sum.Phases[contagion.PhaseActive],
		"max_pressure", sum.MaxPressure,
	)
	return sum
}

func forward[E Event](out emit.Emitter[Event]) emit.Emitter[E] {
	if out == nil {
		return emit.Discard[E]{}
	}
	return emit.NewMap[E, Event](out, func(e E) Event { return e })
}
