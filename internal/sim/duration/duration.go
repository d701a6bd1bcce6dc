// Package duration implements tagged time quantities. Arithmetic is only
// defined between equal tags; mixing Turns, Ticks and Seconds is a no-op that
// reports ok=false instead of coercing one unit into another.
package duration

import (
	"fmt"
	"math"
)

type Unit string

const (
	UnitTurns   Unit = "turns"
	UnitTicks   Unit = "ticks"
	UnitSeconds Unit = "seconds"
)

// Duration is plain data. Value is integral for turns and ticks.
type Duration struct {
	Unit  Unit    `json:"unit" yaml:"unit"`
	Value float64 `json:"value" yaml:"value"`
}

func Turns(n uint64) Duration { return Duration{Unit: UnitTurns, Value: float64(n)} }

func Ticks(n uint64) Duration { return Duration{Unit: UnitTicks, Value: float64(n)} }

// Seconds clamps negative and NaN inputs to zero.
func Seconds(s float64) Duration {
	if s < 0 || math.IsNaN(s) {
		s = 0
	}
	return Duration{Unit: UnitSeconds, Value: s}
}

// Zero returns a zero duration carrying the same tag as d.
func (d Duration) Zero() Duration { return Duration{Unit: d.Unit} }

func (d Duration) IsZero() bool { return d.Value == 0 }

func (d Duration) SameUnit(o Duration) bool { return d.Unit == o.Unit }

// Add returns d+o. On tag mismatch d is returned unchanged with ok=false.
func (d Duration) Add(o Duration) (Duration, bool) {
	if !d.SameUnit(o) {
		return d, false
	}
	return Duration{Unit: d.Unit, Value: d.Value + o.Value}, true
}

// Sub returns d-o saturating at zero. On tag mismatch d is returned unchanged.
func (d Duration) Sub(o Duration) (Duration, bool) {
	if !d.SameUnit(o) {
		return d, false
	}
	v := d.Value - o.Value
	if v < 0 {
		v = 0
	}
	return Duration{Unit: d.Unit, Value: v}, true
}

// Less orders same-tag durations; mismatched tags compare as not less.
func (d Duration) Less(o Duration) bool {
	return d.SameUnit(o) && d.Value < o.Value
}

// IsExpired reports whether elapsed has reached d. A mismatched tag never
// expires.
func (d Duration) IsExpired(elapsed Duration) bool {
	return d.SameUnit(elapsed) && elapsed.Value >= d.Value
}

// Remaining is the time left until d expires, zero once expired.
func (d Duration) Remaining(elapsed Duration) (Duration, bool) {
	return d.Sub(elapsed)
}

func (d Duration) String() string {
	switch d.Unit {
	case UnitSeconds:
		return fmt.Sprintf("%gs", d.Value)
	case "":
		return "0"
	default:
		return fmt.Sprintf("%d %s", int64(d.Value), d.Unit)
	}
}
