package aggregate

import (
	"math"
	"sort"
)

type Kind string

const (
	Sum     Kind = "SUM"
	Count   Kind = "COUNT"
	Average Kind = "AVERAGE"
	Min     Kind = "MIN"
	Max     Kind = "MAX"
	P50     Kind = "P50"
	P95     Kind = "P95"
	P99     Kind = "P99"
	Last    Kind = "LAST"
	Rate    Kind = "RATE"
	Gini    Kind = "GINI"
)

// Kinds lists every supported aggregation in a stable order.
var Kinds = []Kind{Sum, Count, Average, Min, Max, P50, P95, P99, Last, Rate, Gini}

// Sample is one observation. Tick is in whatever unit the host counts time
// in; Rate is reported per that unit and treats each Value as the delta since
// the previous sample.
type Sample struct {
	Tick     uint64            `json:"tick"`
	Value    float64           `json:"value"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Window selects samples with From <= Tick <= To. A zero To means unbounded.
type Window struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

func (w Window) Contains(tick uint64) bool {
	if tick < w.From {
		return false
	}
	return w.To == 0 || tick <= w.To
}

func (w Window) Filter(samples []Sample) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if w.Contains(s.Tick) {
			out = append(out, s)
		}
	}
	return out
}

// Compute folds samples into one value. ok is false when the aggregation is
// undefined for the input (empty set, or a zero time span for Rate). Count is
// always defined.
func Compute(kind Kind, samples []Sample) (float64, bool) {
	if kind == Count {
		return float64(len(samples)), true
	}
	if len(samples) == 0 {
		return 0, false
	}
	switch kind {
	case Sum:
		return sum(samples), true
	case Average:
		return sum(samples) / float64(len(samples)), true
	case Min:
		m := samples[0].Value
		for _, s := range samples[1:] {
			m = math.Min(m, s.Value)
		}
		return m, true
	case Max:
		m := samples[0].Value
		for _, s := range samples[1:] {
			m = math.Max(m, s.Value)
		}
		return m, true
	case P50:
		return Percentile(values(samples), 50), true
	case P95:
		return Percentile(values(samples), 95), true
	case P99:
		return Percentile(values(samples), 99), true
	case Last:
		last := samples[0]
		for _, s := range samples[1:] {
			if s.Tick >= last.Tick {
				last = s
			}
		}
		return last.Value, true
	case Rate:
		lo, hi := samples[0].Tick, samples[0].Tick
		for _, s := range samples[1:] {
			if s.Tick < lo {
				lo = s.Tick
			}
			if s.Tick > hi {
				hi = s.Tick
			}
		}
		if hi == lo {
			return 0, false
		}
		// Samples are per-interval deltas; those at lo open the span.
		var delta float64
		for _, s := range samples {
			if s.Tick != lo {
				delta += s.Value
			}
		}
		return delta / float64(hi-lo), true
	case Gini:
		return GiniCoefficient(values(samples)), true
	default:
		return 0, false
	}
}

// Summary computes every kind over the same samples.
func Summary(samples []Sample) map[Kind]float64 {
	out := make(map[Kind]float64, len(Kinds))
	for _, k := range Kinds {
		if v, ok := Compute(k, samples); ok {
			out[k] = v
		}
	}
	return out
}

// Percentile uses nearest rank over a sorted copy.
func Percentile(vals []float64, p float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

func Min01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 || math.IsNaN(x) {
		return 1
	}
	return x
}

// GiniCoefficient measures inequality over the positive values.
func GiniCoefficient(vals []float64) float64 {
	if len(vals) <= 1 {
		return 0
	}
	total := 0.0
	valid := make([]float64, 0, len(vals))
	for _, x := range vals {
		if x <= 0 {
			continue
		}
		valid = append(valid, x)
		total += x
	}
	if len(valid) <= 1 || total <= 0 {
		return 0
	}
	sort.Float64s(valid)
	// (2*sum_i i*x_i)/(n*sum x) - (n+1)/n, with i=1..n.
	n := float64(len(valid))
	var weighted float64
	for i, x := range valid {
		weighted += float64(i+1) * x
	}
	return Min01((2.0*weighted)/(n*total) - (n+1.0)/n)
}

func sum(samples []Sample) float64 {
	var s float64
	for _, x := range samples {
		s += x.Value
	}
	return s
}

func values(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Value
	}
	return out
}

// Collect turns a stream of timestamped items into samples, keeping only the
// items extract accepts.
func Collect[T any](items []T, extract func(T) (Sample, bool)) []Sample {
	var out []Sample
	for _, it := range items {
		if s, ok := extract(it); ok {
			out = append(out, s)
		}
	}
	return out
}
