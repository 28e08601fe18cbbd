package simulation

import (
	"golang.org/x/exp/rand"

	"github.com/couchcryptid/windsim/internal/domain"
)

// GenerateEvents produces a series that is zero while idle and uniformly
// random in [MinAmplitude, MaxAmplitude] inside triggered windows.
//
// At an idle point the gate is consulted first: a closed gate emits zero
// without drawing. An open (or absent) gate draws p from U(0,1) and opens a
// window of length U(MinDuration, MaxDuration) when p < TriggerProbability
// or the probability is at least 1. Inside a window the magnitude is redrawn
// at every point until the window end passes, the grid ends or the gate
// closes. The point that closes a window is then evaluated as idle in the
// same pass, so it may open the next window immediately.
//
// A nil gate means ungated. Gate indexes past its end count as closed.
func GenerateEvents(cfg domain.EventConfig, grid domain.Grid, gate domain.Series, src rand.Source) domain.Series {
	n := grid.Points()
	trigger := uniform(0, 1, src)
	length := uniform(cfg.MinDuration, cfg.MaxDuration, src)
	magnitude := uniform(cfg.MinAmplitude, cfg.MaxAmplitude, src)

	open := func(i int) bool {
		if gate == nil {
			return true
		}
		return i < len(gate) && !domain.IsZero(gate[i].Value)
	}

	out := make(domain.Series, 0, n)
	for i := 0; i < n; {
		t := grid.At(i)
		if !open(i) {
			out = append(out, domain.Sample{Time: t})
			i++
			continue
		}

		if p := trigger.Rand(); p >= cfg.TriggerProbability && !cfg.AlwaysTriggers() {
			out = append(out, domain.Sample{Time: t})
			i++
			continue
		}

		windowEnd := t + length.Rand()
		for i < n && grid.At(i) <= windowEnd+domain.Epsilon && grid.Contains(grid.At(i)) && open(i) {
			out = append(out, domain.Sample{Time: grid.At(i), Value: magnitude.Rand()})
			i++
		}
	}
	return out
}
