package simulation

import (
	"golang.org/x/exp/rand"

	"github.com/couchcryptid/windsim/internal/domain"
)

// SampleWind emits baseSpeed + U(-1,1)*gust at every grid point.
// Samples are independent; one draw is consumed per point.
func SampleWind(cfg domain.WindConfig, src rand.Source) domain.Series {
	grid := cfg.Grid()
	n := grid.Points()
	deviation := uniform(-1, 1, src)

	out := make(domain.Series, n)
	for i := range n {
		out[i] = domain.Sample{
			Time:  grid.At(i),
			Value: cfg.BaseSpeed + deviation.Rand()*cfg.Gust,
		}
	}
	return out
}
