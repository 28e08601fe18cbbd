package domain

import "math"

// Epsilon is the tolerance for zero tests and grid-boundary comparisons.
const Epsilon = 1e-6

// IsZero reports whether v is effectively zero.
func IsZero(v float64) bool {
	return math.Abs(v) <= Epsilon
}

// Grid is the discretized time axis shared by every series of a run.
type Grid struct {
	Duration float64
	Step     float64
}

// Points returns the number of grid points, floor(Duration/Step)+1.
// A grid with a non-positive step, a negative duration or a non-finite
// point count has no points.
func (g Grid) Points() int {
	if g.Step <= 0 || g.Duration < 0 {
		return 0
	}
	n := math.Floor(g.Duration/g.Step + Epsilon)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return int(n) + 1
}

// At returns the time of grid point i.
func (g Grid) At(i int) float64 {
	return float64(i) * g.Step
}

// Contains reports whether t lies on or before the end of the grid.
func (g Grid) Contains(t float64) bool {
	return t <= g.Duration+Epsilon
}

// Sample is one value of a series at a grid time.
type Sample struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// Series is an ordered sequence of samples, one per grid point.
type Series []Sample

// Values returns the sample values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, sample := range s {
		out[i] = sample.Value
	}
	return out
}

// NonZero counts the samples that are not effectively zero.
func (s Series) NonZero() int {
	n := 0
	for _, sample := range s {
		if !IsZero(sample.Value) {
			n++
		}
	}
	return n
}

// Windows counts maximal runs of consecutive nonzero samples.
// Back-to-back windows with no idle point between them count as one.
func (s Series) Windows() int {
	n := 0
	active := false
	for _, sample := range s {
		nonzero := !IsZero(sample.Value)
		if nonzero && !active {
			n++
		}
		active = nonzero
	}
	return n
}
