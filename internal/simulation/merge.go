package simulation

import (
	"math"

	"github.com/couchcryptid/windsim/internal/domain"
)

// Merge combines the three series point by point. The speed is the exact sum
// of the three values and a storm is present where the storm value is not
// effectively zero. Series of unequal length, or with disagreeing times, yield
// an *domain.AlignmentError and no trace.
func Merge(wind, storm, burst domain.Series) (domain.Trace, error) {
	if len(wind) != len(storm) || len(wind) != len(burst) {
		return nil, &domain.AlignmentError{Wind: len(wind), Storm: len(storm), Burst: len(burst), Index: -1}
	}

	out := make(domain.Trace, len(wind))
	for i := range wind {
		if !sameTime(wind[i].Time, storm[i].Time) || !sameTime(wind[i].Time, burst[i].Time) {
			return nil, &domain.AlignmentError{Wind: len(wind), Storm: len(storm), Burst: len(burst), Index: i}
		}
		out[i] = domain.TracePoint{
			Time:         wind[i].Time,
			Speed:        wind[i].Value + storm[i].Value + burst[i].Value,
			StormPresent: !domain.IsZero(storm[i].Value),
		}
	}
	return out, nil
}

func sameTime(a, b float64) bool {
	return math.Abs(a-b) <= domain.Epsilon
}
