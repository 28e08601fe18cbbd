package simulation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/couchcryptid/windsim/internal/domain"
)

// Simulator generates complete runs: wind and storm concurrently, then the
// burst series gated on the finished storm series, then the merged trace.
type Simulator struct {
	logger *slog.Logger
}

// NewSimulator creates a Simulator.
func NewSimulator(logger *slog.Logger) *Simulator {
	return &Simulator{logger: logger}
}

// Simulate runs one simulation with the given seed. The configuration must
// already be validated. Identical configs and seeds produce identical series.
func (s *Simulator) Simulate(ctx context.Context, cfg domain.SimulationConfig, seed uint64) (*domain.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	streams := NewStreams(seed)
	grid := cfg.Wind.Grid()

	var wind, storm domain.Series
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		wind = SampleWind(cfg.Wind, streams.Wind)
	}()
	go func() {
		defer wg.Done()
		storm = GenerateEvents(cfg.Storm, grid, nil, streams.Storm)
	}()
	wg.Wait()

	burst := GenerateEvents(cfg.Burst, grid, storm, streams.Burst)

	trace, err := Merge(wind, storm, burst)
	if err != nil {
		return nil, err
	}

	run := &domain.Run{
		ID:        uuid.NewString(),
		Seed:      seed,
		CreatedAt: domain.Now(),
		Config:    cfg,
		Wind:      wind,
		Storm:     storm,
		Burst:     burst,
		Trace:     trace,
		Summary:   domain.Summarize(storm, burst, trace),
	}

	s.logger.Debug("simulation generated",
		"run_id", run.ID,
		"seed", seed,
		"points", run.Summary.Points,
		"storm_windows", run.Summary.StormWindows,
		"burst_windows", run.Summary.BurstWindows,
	)
	return run, nil
}
