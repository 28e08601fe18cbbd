package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/windsim/internal/domain"
	"github.com/couchcryptid/windsim/internal/observability"
)

// Generator produces a complete simulation run from a validated configuration.
type Generator interface {
	Simulate(ctx context.Context, cfg domain.SimulationConfig, seed uint64) (*domain.Run, error)
}

// Sink receives every finished run, e.g. output tables, a Kafka topic or a run store.
type Sink interface {
	Name() string
	Load(ctx context.Context, run *domain.Run) error
}

// SinkError reports a sink that still failed after every delivery attempt.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string { return fmt.Sprintf("sink %s: %v", e.Sink, e.Err) }

func (e *SinkError) Unwrap() error { return e.Err }

// SinkFailed reports whether err, as returned by Execute, includes a failure
// of the named sink.
func SinkFailed(err error, name string) bool {
	switch e := err.(type) {
	case *SinkError:
		return e.Sink == name
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if SinkFailed(inner, name) {
				return true
			}
		}
	}
	return false
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline runs the simulation and then delivers the run to each sink.
type Pipeline struct {
	generator   Generator
	sinks       []Sink
	logger      *slog.Logger
	metrics     *observability.Metrics
	maxAttempts int
	ready       atomic.Bool
}

// New creates a Pipeline. maxAttempts bounds delivery attempts per sink and
// is raised to 1 when lower.
func New(g Generator, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics, maxAttempts int) *Pipeline {
	return &Pipeline{
		generator:   g,
		sinks:       sinks,
		logger:      logger,
		metrics:     metrics,
		maxAttempts: max(maxAttempts, 1),
	}
}

// CheckReadiness returns nil once the pipeline has completed at least one run.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a simulation yet")
	}
	return nil
}

// Execute generates one run and loads it into every sink. An alignment error
// aborts before any sink is touched. Sink failures do not stop the remaining
// sinks; they are joined into the returned error alongside the run.
func (p *Pipeline) Execute(ctx context.Context, cfg domain.SimulationConfig, seed uint64) (*domain.Run, error) {
	start := time.Now()

	run, err := p.generator.Simulate(ctx, cfg, seed)
	if err != nil {
		var alignErr *domain.AlignmentError
		if errors.As(err, &alignErr) {
			p.metrics.RunsTotal.WithLabelValues("alignment_error").Inc()
		} else {
			p.metrics.RunsTotal.WithLabelValues("error").Inc()
		}
		p.logger.Error("simulation failed", "seed", seed, "error", err)
		return nil, fmt.Errorf("simulate: %w", err)
	}

	p.metrics.SimulationDuration.Observe(time.Since(start).Seconds())
	p.recordRun(run)

	p.logger.Info("simulation complete",
		"run_id", run.ID,
		"seed", run.Seed,
		"points", run.Summary.Points,
		"storm_points", run.Summary.StormPoints,
		"burst_points", run.Summary.BurstPoints,
		"peak_speed", run.Summary.PeakSpeed,
	)

	var errs []error
	for _, sink := range p.sinks {
		if err := p.load(ctx, sink, run); err != nil {
			errs = append(errs, &SinkError{Sink: sink.Name(), Err: err})
		}
	}
	if len(errs) > 0 {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return run, errors.Join(errs...)
	}

	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.ready.Store(true)
	return run, nil
}

func (p *Pipeline) recordRun(run *domain.Run) {
	n := float64(run.Summary.Points)
	p.metrics.SamplesGenerated.WithLabelValues("wind").Add(n)
	p.metrics.SamplesGenerated.WithLabelValues("storm").Add(n)
	p.metrics.SamplesGenerated.WithLabelValues("burst").Add(n)
	p.metrics.EventPoints.WithLabelValues("storm").Add(float64(run.Summary.StormPoints))
	p.metrics.EventPoints.WithLabelValues("burst").Add(float64(run.Summary.BurstPoints))
	p.metrics.EventWindows.WithLabelValues("storm").Add(float64(run.Summary.StormWindows))
	p.metrics.EventWindows.WithLabelValues("burst").Add(float64(run.Summary.BurstWindows))
	p.metrics.LastPeakSpeed.Set(run.Summary.PeakSpeed)
}

// load delivers a run to one sink, retrying with exponential backoff.
func (p *Pipeline) load(ctx context.Context, sink Sink, run *domain.Run) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		start := time.Now()
		err = sink.Load(ctx, run)
		p.metrics.SinkDuration.WithLabelValues(sink.Name()).Observe(time.Since(start).Seconds())
		if err == nil {
			p.metrics.SinkWrites.WithLabelValues(sink.Name(), "success").Inc()
			return nil
		}
		if ctx.Err() != nil || attempt == p.maxAttempts {
			break
		}

		p.logger.Warn("sink load failed, retrying",
			"sink", sink.Name(),
			"run_id", run.ID,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		p.metrics.SinkWrites.WithLabelValues(sink.Name(), "retry").Inc()
		if !sleepWithContext(ctx, backoff) {
			break
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}

	p.metrics.SinkWrites.WithLabelValues(sink.Name(), "error").Inc()
	p.logger.Error("sink load failed", "sink", sink.Name(), "run_id", run.ID, "error", err)
	return err
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
