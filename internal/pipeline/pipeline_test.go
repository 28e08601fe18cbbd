package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/windsim/internal/domain"
	"github.com/couchcryptid/windsim/internal/observability"
	"github.com/couchcryptid/windsim/internal/pipeline"
	"github.com/couchcryptid/windsim/internal/simulation"
)

// --- mocks ---

type mockGenerator struct {
	run *domain.Run
	err error
}

func (m *mockGenerator) Simulate(_ context.Context, _ domain.SimulationConfig, seed uint64) (*domain.Run, error) {
	if m.err != nil {
		return nil, m.err
	}
	run := *m.run
	run.Seed = seed
	return &run, nil
}

type mockSink struct {
	name     string
	failures int
	err      error
	calls    int
	loaded   []*domain.Run
}

func (m *mockSink) Name() string { return m.name }

func (m *mockSink) Load(_ context.Context, run *domain.Run) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	if m.calls <= m.failures {
		return errors.New("transient failure")
	}
	m.loaded = append(m.loaded, run)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRun() *domain.Run {
	storm := domain.Series{{Time: 0, Value: 0}, {Time: 5, Value: 3}, {Time: 10, Value: 3}}
	burst := domain.Series{{Time: 0, Value: 0}, {Time: 5, Value: 0}, {Time: 10, Value: 1}}
	trace := domain.Trace{
		{Time: 0, Speed: 10},
		{Time: 5, Speed: 13, StormPresent: true},
		{Time: 10, Speed: 14, StormPresent: true},
	}
	return &domain.Run{
		ID:      "run-1",
		Wind:    domain.Series{{Time: 0, Value: 10}, {Time: 5, Value: 10}, {Time: 10, Value: 10}},
		Storm:   storm,
		Burst:   burst,
		Trace:   trace,
		Summary: domain.Summarize(storm, burst, trace),
	}
}

// --- tests ---

func TestPipeline_Execute_HappyPath(t *testing.T) {
	tables := &mockSink{name: "tables"}
	store := &mockSink{name: "store"}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(&mockGenerator{run: testRun()}, []pipeline.Sink{tables, store}, discardLogger(), metrics, 3)
	require.Error(t, p.CheckReadiness(context.Background()))

	run, err := p.Execute(context.Background(), domain.SimulationConfig{}, 42)
	require.NoError(t, err)

	assert.Equal(t, uint64(42), run.Seed)
	require.Len(t, tables.loaded, 1)
	require.Len(t, store.loaded, 1)
	assert.Same(t, run, tables.loaded[0])
	assert.NoError(t, p.CheckReadiness(context.Background()))

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("success")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.SamplesGenerated.WithLabelValues("wind")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.EventPoints.WithLabelValues("storm")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.EventWindows.WithLabelValues("burst")), 0)
	assert.InDelta(t, 14, testutil.ToFloat64(metrics.LastPeakSpeed), 0)
}

func TestPipeline_Execute_AlignmentErrorSkipsSinks(t *testing.T) {
	sink := &mockSink{name: "tables"}
	metrics := observability.NewMetricsForTesting()
	gen := &mockGenerator{err: &domain.AlignmentError{Wind: 3, Storm: 2, Burst: 3, Index: -1}}

	p := pipeline.New(gen, []pipeline.Sink{sink}, discardLogger(), metrics, 3)

	run, err := p.Execute(context.Background(), domain.SimulationConfig{}, 1)

	assert.Nil(t, run)
	var alignErr *domain.AlignmentError
	require.ErrorAs(t, err, &alignErr)
	assert.Zero(t, sink.calls)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("alignment_error")), 0)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Execute_RetriesTransientSinkFailure(t *testing.T) {
	sink := &mockSink{name: "kafka", failures: 1}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(&mockGenerator{run: testRun()}, []pipeline.Sink{sink}, discardLogger(), metrics, 3)

	_, err := p.Execute(context.Background(), domain.SimulationConfig{}, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, sink.calls)
	assert.Len(t, sink.loaded, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SinkWrites.WithLabelValues("kafka", "retry")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SinkWrites.WithLabelValues("kafka", "success")), 0)
}

func TestPipeline_Execute_SinkFailureDoesNotStopOthers(t *testing.T) {
	broken := &mockSink{name: "postgres", err: errors.New("connection refused")}
	healthy := &mockSink{name: "tables"}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(&mockGenerator{run: testRun()}, []pipeline.Sink{broken, healthy}, discardLogger(), metrics, 1)

	run, err := p.Execute(context.Background(), domain.SimulationConfig{}, 1)

	require.Error(t, err)
	assert.NotNil(t, run)
	assert.Contains(t, err.Error(), "sink postgres: connection refused")
	assert.Equal(t, 1, broken.calls)
	assert.Len(t, healthy.loaded, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SinkWrites.WithLabelValues("postgres", "error")), 0)
}

func TestPipeline_Execute_ReportsWhichSinksFailed(t *testing.T) {
	cause := errors.New("disk full")
	tables := &mockSink{name: "tables", err: cause}
	kafka := &mockSink{name: "kafka", err: errors.New("broker down")}
	store := &mockSink{name: "memory"}

	p := pipeline.New(&mockGenerator{run: testRun()}, []pipeline.Sink{tables, kafka, store}, discardLogger(), observability.NewMetricsForTesting(), 1)

	run, err := p.Execute(context.Background(), domain.SimulationConfig{}, 1)
	require.NotNil(t, run)
	require.Error(t, err)

	assert.True(t, pipeline.SinkFailed(err, "tables"))
	assert.True(t, pipeline.SinkFailed(err, "kafka"))
	assert.False(t, pipeline.SinkFailed(err, "memory"))
	assert.ErrorIs(t, err, cause)

	var sinkErr *pipeline.SinkError
	require.ErrorAs(t, err, &sinkErr)
	assert.Equal(t, "tables", sinkErr.Sink)
}

func TestSinkFailed_OtherErrors(t *testing.T) {
	assert.False(t, pipeline.SinkFailed(nil, "tables"))
	assert.False(t, pipeline.SinkFailed(errors.New("tables broke"), "tables"))
	assert.True(t, pipeline.SinkFailed(&pipeline.SinkError{Sink: "tables", Err: io.ErrShortWrite}, "tables"))
}

func TestPipeline_Execute_CancelledContextStopsRetrying(t *testing.T) {
	sink := &mockSink{name: "kafka", err: errors.New("broker down")}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	p := pipeline.New(&mockGenerator{run: testRun()}, []pipeline.Sink{sink}, discardLogger(), observability.NewMetricsForTesting(), 10)

	start := time.Now()
	_, err := p.Execute(ctx, domain.SimulationConfig{}, 1)

	require.Error(t, err)
	assert.Equal(t, 1, sink.calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPipeline_Execute_WithSimulator(t *testing.T) {
	cfg := domain.SimulationConfig{
		Wind:  domain.WindConfig{BaseSpeed: 10, Gust: 0, Duration: 10, Step: 5},
		Storm: domain.EventConfig{TriggerProbability: 1, MinAmplitude: 3, MaxAmplitude: 3, MinDuration: 10, MaxDuration: 10},
		Burst: domain.EventConfig{TriggerProbability: 0, MinAmplitude: 1, MaxAmplitude: 2, MinDuration: 1, MaxDuration: 2},
	}
	sink := &mockSink{name: "tables"}
	p := pipeline.New(simulation.NewSimulator(discardLogger()), []pipeline.Sink{sink}, discardLogger(), observability.NewMetricsForTesting(), 1)

	run, err := p.Execute(context.Background(), cfg, 3)
	require.NoError(t, err)

	assert.Equal(t, domain.Trace{
		{Time: 0, Speed: 13, StormPresent: true},
		{Time: 5, Speed: 13, StormPresent: true},
		{Time: 10, Speed: 13, StormPresent: true},
	}, run.Trace)
}
