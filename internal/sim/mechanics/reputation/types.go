package reputation

import (
	"cmp"
	"slices"
)

// Band names the interval starting at Lower and running up to the next
// band's Lower.
type Band struct {
	Name  string  `json:"name" yaml:"name"`
	Lower float64 `json:"lower" yaml:"lower"`
}

type Config struct {
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Neutral float64 `json:"neutral" yaml:"neutral"`
	// DecayRate is units per elapsed for LinearDecay and the per-elapsed
	// retention factor for ExponentialDecay.
	DecayRate float64 `json:"decay_rate" yaml:"decay_rate"`
	// ChangeScale multiplies deltas under ScaledChange.
	ChangeScale float64 `json:"change_scale" yaml:"change_scale"`
	Bands       []Band  `json:"bands,omitempty" yaml:"bands,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Min:         -100,
		Max:         100,
		DecayRate:   0.95,
		ChangeScale: 1,
		Bands: []Band{
			{Name: "HOSTILE", Lower: -100},
			{Name: "UNFRIENDLY", Lower: -30},
			{Name: "NEUTRAL", Lower: -10},
			{Name: "FRIENDLY", Lower: 10},
			{Name: "ALLIED", Lower: 60},
		},
	}
}

// BandOf returns the highest band whose lower bound is <= v, or "" when v
// sits below every band.
func (c Config) BandOf(v float64) string {
	bands := slices.Clone(c.Bands)
	slices.SortStableFunc(bands, func(a, b Band) int { return cmp.Compare(a.Lower, b.Lower) })
	name := ""
	for _, b := range bands {
		if v < b.Lower {
			break
		}
		name = b.Name
	}
	return name
}

type State struct {
	Value float64 `json:"value" yaml:"value"`
}

func NewState(v float64) State { return State{Value: v} }

type Input struct {
	Delta   float64 `json:"delta"`
	Elapsed float64 `json:"elapsed"`
}

type Bound string

const (
	BoundMin Bound = "MIN"
	BoundMax Bound = "MAX"
)

type Event interface {
	Kind() string
}

type Changed struct {
	Old   float64 `json:"old"`
	New   float64 `json:"new"`
	Delta float64 `json:"delta"`
}

type Clamped struct {
	At    Bound   `json:"at"`
	Value float64 `json:"value"`
}

type ThresholdCrossed struct {
	OldBand string `json:"old_band"`
	NewBand string `json:"new_band"`
}

func (Changed) Kind() string          { return "CHANGED" }
func (Clamped) Kind() string          { return "CLAMPED" }
func (ThresholdCrossed) Kind() string { return "THRESHOLD_CROSSED" }
