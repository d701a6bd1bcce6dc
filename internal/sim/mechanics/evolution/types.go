package evolution

import "fmt"

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusPaused    Status = "PAUSED"
	StatusCompleted Status = "COMPLETED"
	StatusDepleted  Status = "DEPLETED"
)

// Subject labels what is evolving. The kernel does not branch on it.
type Subject string

const (
	SubjectGeneric    Subject = "GENERIC"
	SubjectFood       Subject = "FOOD"
	SubjectPlant      Subject = "PLANT"
	SubjectResource   Subject = "RESOURCE"
	SubjectPopulation Subject = "POPULATION"
)

type Config struct {
	BaseRate float64 `json:"base_rate" yaml:"base_rate"`
	// Thresholds emit ThresholdCrossed when the value passes them.
	Thresholds []float64 `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	// PauseWhenHalted moves an Active state to Paused when the rate is zero
	// and back to Active once it moves again.
	PauseWhenHalted bool `json:"pause_when_halted" yaml:"pause_when_halted"`
}

func DefaultConfig() Config {
	return Config{BaseRate: 1.0}
}

type State struct {
	Value          float64 `json:"value" yaml:"value"`
	Min            float64 `json:"min" yaml:"min"`
	Max            float64 `json:"max" yaml:"max"`
	RateMultiplier float64 `json:"rate_multiplier" yaml:"rate_multiplier"`
	Subject        Subject `json:"subject" yaml:"subject"`
	Status         Status  `json:"status" yaml:"status"`
	Elapsed        float64 `json:"elapsed" yaml:"elapsed"`
}

// NewState builds an Active state with value clamped into [min, max] and a
// rate multiplier of 1. min > max panics.
func NewState(subject Subject, value, min, max float64) State {
	mustBounds(min, max)
	return State{
		Value:          clamp(value, min, max),
		Min:            min,
		Max:            max,
		RateMultiplier: 1,
		Subject:        subject,
		Status:         StatusActive,
	}
}

func mustBounds(min, max float64) {
	if min > max {
		panic(fmt.Sprintf("evolution: min %v > max %v", min, max))
	}
}

// Environment is what the host samples from its world for this tick.
type Environment struct {
	Temperature float64 `json:"temperature" yaml:"temperature"`
	Humidity    float64 `json:"humidity" yaml:"humidity"`
	// Multiplier is read by ScaledEnvironment.
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`
}

func NeutralEnvironment() Environment {
	return Environment{Temperature: OptimalTemperature, Humidity: 0.5, Multiplier: 1}
}

type Input struct {
	TimeDelta   float64     `json:"time_delta"`
	Environment Environment `json:"environment"`
}

type Event interface {
	Kind() string
}

type ValueChanged struct {
	Old   float64 `json:"old"`
	New   float64 `json:"new"`
	Delta float64 `json:"delta"`
}

type MinimumReached struct {
	Value float64 `json:"value"`
}

type MaximumReached struct {
	Value float64 `json:"value"`
}

type ThresholdCrossed struct {
	Threshold float64 `json:"threshold"`
	Rising    bool    `json:"rising"`
}

type StatusChanged struct {
	Old Status `json:"old"`
	New Status `json:"new"`
}

func (ValueChanged) Kind() string     { return "VALUE_CHANGED" }
func (MinimumReached) Kind() string   { return "MINIMUM_REACHED" }
func (MaximumReached) Kind() string   { return "MAXIMUM_REACHED" }
func (ThresholdCrossed) Kind() string { return "THRESHOLD_CROSSED" }
func (StatusChanged) Kind() string    { return "STATUS_CHANGED" }
