package generation

import "fmt"

// Kind is what is being produced; it scales the base growth rate.
type Kind string

const (
	KindConstruction Kind = "CONSTRUCTION"
	KindResearch     Kind = "RESEARCH"
	KindCrafting     Kind = "CRAFTING"
	KindCultivation  Kind = "CULTIVATION"
	KindTraining     Kind = "TRAINING"
)

func (k Kind) Factor() float64 {
	switch k {
	case KindConstruction:
		return 1.0
	case KindResearch:
		return 0.5
	case KindCrafting:
		return 2.0
	case KindCultivation:
		return 0.8
	case KindTraining:
		return 1.2
	}
	return 1.0
}

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusGenerating Status = "GENERATING"
	StatusCompleted  Status = "COMPLETED"
)

type Config struct {
	GlobalGrowthMultiplier float64 `json:"global_growth_multiplier" yaml:"global_growth_multiplier"`
	AutoRemoveOnComplete   bool    `json:"auto_remove_on_complete" yaml:"auto_remove_on_complete"`
	MaxEvents              int     `json:"max_events" yaml:"max_events"`
}

func DefaultConfig() Config {
	return Config{GlobalGrowthMultiplier: 1.0, AutoRemoveOnComplete: true, MaxEvents: 1000}
}

type State struct {
	Current    float64 `json:"current" yaml:"current"`
	Max        float64 `json:"max" yaml:"max"`
	GrowthRate float64 `json:"growth_rate" yaml:"growth_rate"`
	Kind       Kind    `json:"kind" yaml:"kind"`
	Status     Status  `json:"status" yaml:"status"`
}

// NewState starts empty and Pending. A negative max panics.
func NewState(max, growthRate float64, kind Kind) State {
	if max < 0 {
		panic(fmt.Sprintf("generation: negative max %v", max))
	}
	return State{Max: max, GrowthRate: growthRate, Kind: kind, Status: StatusPending}
}

func (s State) Ratio() float64 {
	if s.Max <= 0 {
		return 1
	}
	return s.Current / s.Max
}

// Environment carries the host's supply side for this tick.
type Environment struct {
	// Efficiency multiplies growth; 0 stalls it. Negative counts as 0.
	Efficiency float64 `json:"efficiency" yaml:"efficiency"`
	Workers    int     `json:"workers" yaml:"workers"`
}

func NeutralEnvironment() Environment { return Environment{Efficiency: 1, Workers: 1} }

type Input struct {
	TimeDelta   float64     `json:"time_delta"`
	Environment Environment `json:"environment"`
}

type Event interface {
	Kind() string
}

type ProgressApplied struct {
	Amount  float64 `json:"amount"`
	Current float64 `json:"current"`
}

type StatusChanged struct {
	Old Status `json:"old"`
	New Status `json:"new"`
}

// EntityCompleted asks the host to remove or hand off the finished entity.
type EntityCompleted struct{}

func (ProgressApplied) Kind() string { return "PROGRESS_APPLIED" }
func (StatusChanged) Kind() string   { return "STATUS_CHANGED" }
func (EntityCompleted) Kind() string { return "ENTITY_COMPLETED" }
