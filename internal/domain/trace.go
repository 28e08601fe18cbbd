package domain

import (
	"errors"
	"time"
)

// ErrRunNotFound is returned by run stores when no run has the requested ID.
var ErrRunNotFound = errors.New("simulation run not found")

// TracePoint is one row of the merged simulation trace.
type TracePoint struct {
	Time         float64 `json:"time"`
	Speed        float64 `json:"speed"`
	StormPresent bool    `json:"storm_present"`
}

// Trace is the merged output, one point per grid point.
type Trace []TracePoint

// Run is the complete result of one simulation.
type Run struct {
	ID        string           `json:"id"`
	Seed      uint64           `json:"seed"`
	CreatedAt time.Time        `json:"created_at"`
	Config    SimulationConfig `json:"config"`
	Wind      Series           `json:"wind"`
	Storm     Series           `json:"storm"`
	Burst     Series           `json:"burst"`
	Trace     Trace            `json:"trace"`
	Summary   Summary          `json:"summary"`
}

// Summary holds aggregate statistics of a run.
type Summary struct {
	Points       int     `json:"points"`
	StormPoints  int     `json:"storm_points"`
	BurstPoints  int     `json:"burst_points"`
	StormWindows int     `json:"storm_windows"`
	BurstWindows int     `json:"burst_windows"`
	PeakSpeed    float64 `json:"peak_speed"`
	MeanSpeed    float64 `json:"mean_speed"`
}

// Summarize computes the run statistics from its series and trace.
func Summarize(storm, burst Series, trace Trace) Summary {
	s := Summary{
		Points:       len(trace),
		StormPoints:  storm.NonZero(),
		BurstPoints:  burst.NonZero(),
		StormWindows: storm.Windows(),
		BurstWindows: burst.Windows(),
	}
	if len(trace) == 0 {
		return s
	}
	var total float64
	s.PeakSpeed = trace[0].Speed
	for _, p := range trace {
		total += p.Speed
		if p.Speed > s.PeakSpeed {
			s.PeakSpeed = p.Speed
		}
	}
	s.MeanSpeed = total / float64(len(trace))
	return s
}
