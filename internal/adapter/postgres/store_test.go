package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/windsim/internal/domain"
)

func testRun() *domain.Run {
	storm := domain.Series{{Time: 0, Value: 0}, {Time: 5, Value: 3}}
	burst := domain.Series{{Time: 0, Value: 0}, {Time: 5, Value: 1}}
	trace := domain.Trace{{Time: 0, Speed: 10}, {Time: 5, Speed: 14, StormPresent: true}}
	return &domain.Run{
		ID:        "5b4f3f6e-7a63-4f36-9d0e-8d4f6a1c2b11",
		Seed:      18446744073709551615,
		CreatedAt: time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC),
		Config: domain.SimulationConfig{
			Wind: domain.WindConfig{BaseSpeed: 10, Duration: 5, Step: 5},
		},
		Wind:    domain.Series{{Time: 0, Value: 10}, {Time: 5, Value: 10}},
		Storm:   storm,
		Burst:   burst,
		Trace:   trace,
		Summary: domain.Summarize(storm, burst, trace),
	}
}

func TestSampleRows(t *testing.T) {
	rows := sampleRows(testRun())

	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Len(t, row, len(sampleColumns))
	}
	assert.Equal(t, []any{"5b4f3f6e-7a63-4f36-9d0e-8d4f6a1c2b11", 1, 5.0, 10.0, 3.0, 1.0, 14.0, true}, rows[1])
}

func TestRunArgs(t *testing.T) {
	run := testRun()
	cfg, err := json.Marshal(run.Config)
	require.NoError(t, err)

	args := runArgs(run, cfg)

	require.Len(t, args, 11)
	assert.Equal(t, run.ID, args[0])
	assert.Equal(t, "18446744073709551615", args[1], "uint64 seeds are stored as NUMERIC text")
	assert.Equal(t, run.CreatedAt, args[2])
	assert.JSONEq(t, string(cfg), string(args[3].([]byte)))
	assert.Equal(t, 2, args[4])
	assert.Equal(t, 1, args[5])
	assert.Equal(t, 14.0, args[9])
	assert.Equal(t, 12.0, args[10])
}
