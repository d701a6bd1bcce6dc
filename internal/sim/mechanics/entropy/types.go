package entropy

import "fmt"

type Material string

const (
	MaterialMetal   Material = "METAL"
	MaterialWood    Material = "WOOD"
	MaterialStone   Material = "STONE"
	MaterialOrganic Material = "ORGANIC"
	MaterialPlastic Material = "PLASTIC"
	MaterialCrystal Material = "CRYSTAL"
)

// Factor scales the base decay rate. Unknown materials decay at 1.
func (m Material) Factor() float64 {
	switch m {
	case MaterialMetal:
		return 1.0
	case MaterialWood:
		return 1.5
	case MaterialStone:
		return 0.5
	case MaterialOrganic:
		return 2.0
	case MaterialPlastic:
		return 0.8
	case MaterialCrystal:
		return 0.3
	}
	return 1.0
}

// HumiditySensitivity is how much moisture speeds decay up.
func (m Material) HumiditySensitivity() float64 {
	switch m {
	case MaterialMetal:
		return 1.0
	case MaterialWood:
		return 0.8
	case MaterialOrganic:
		return 1.5
	case MaterialStone:
		return 0.1
	case MaterialPlastic:
		return 0.05
	}
	return 0
}

type Status string

const (
	StatusIntact    Status = "INTACT"
	StatusWorn      Status = "WORN"
	StatusDamaged   Status = "DAMAGED"
	StatusCritical  Status = "CRITICAL"
	StatusDestroyed Status = "DESTROYED"
)

type Config struct {
	GlobalDecayMultiplier float64 `json:"global_decay_multiplier" yaml:"global_decay_multiplier"`
	AutoDestroyOnZero     bool    `json:"auto_destroy_on_zero" yaml:"auto_destroy_on_zero"`
	// MaxEvents bounds the System's event history; <= 0 keeps everything.
	MaxEvents int `json:"max_events" yaml:"max_events"`
}

func DefaultConfig() Config {
	return Config{GlobalDecayMultiplier: 1.0, AutoDestroyOnZero: true, MaxEvents: 1000}
}

type State struct {
	Current   float64  `json:"current" yaml:"current"`
	Max       float64  `json:"max" yaml:"max"`
	DecayRate float64  `json:"decay_rate" yaml:"decay_rate"`
	Material  Material `json:"material" yaml:"material"`
	Status    Status   `json:"status" yaml:"status"`
}

// NewState starts at full durability. A negative max panics.
func NewState(max, decayRate float64, material Material) State {
	if max < 0 {
		panic(fmt.Sprintf("entropy: negative max %v", max))
	}
	return State{Current: max, Max: max, DecayRate: decayRate, Material: material, Status: RatioStatus{}.Classify(ratio(max, max))}
}

func (s State) Ratio() float64 { return ratio(s.Current, s.Max) }

func ratio(cur, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return cur / max
}

type Environment struct {
	Temperature float64 `json:"temperature" yaml:"temperature"`
	Humidity    float64 `json:"humidity" yaml:"humidity"`
	// Corrosion adds directly to the environmental factor.
	Corrosion float64 `json:"corrosion" yaml:"corrosion"`
}

type Input struct {
	TimeDelta   float64     `json:"time_delta"`
	Environment Environment `json:"environment"`
}

type Event interface {
	Kind() string
}

type DecayApplied struct {
	Amount  float64 `json:"amount"`
	Current float64 `json:"current"`
}

type Repaired struct {
	Amount  float64 `json:"amount"`
	Current float64 `json:"current"`
}

type StatusChanged struct {
	Old Status `json:"old"`
	New Status `json:"new"`
}

// EntityDestroyed asks the host to despawn the entity.
type EntityDestroyed struct{}

func (DecayApplied) Kind() string    { return "DECAY_APPLIED" }
func (Repaired) Kind() string        { return "REPAIRED" }
func (StatusChanged) Kind() string   { return "STATUS_CHANGED" }
func (EntityDestroyed) Kind() string { return "ENTITY_DESTROYED" }
