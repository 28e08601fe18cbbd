package memory

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/windsim/internal/domain"
)

func run(id string) *domain.Run {
	return &domain.Run{ID: id}
}

func fakeClock(t *testing.T) *clockwork.FakeClock {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC))
	domain.SetClock(clock)
	t.Cleanup(func() { domain.SetClock(nil) })
	return clock
}

func TestStore_LoadThenGet(t *testing.T) {
	s := NewStore(10, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, run("run-1")))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.ID)
	assert.NoError(t, s.CheckReadiness(ctx))
}

func TestStore_MissingRun(t *testing.T) {
	_, err := NewStore(10, time.Hour).GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestStore_NonPositiveSizeKeepsOneRun(t *testing.T) {
	s := NewStore(0, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, run("a")))
	require.NoError(t, s.Load(ctx, run("b")))

	_, err := s.GetRun(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	_, err = s.GetRun(ctx, "b")
	assert.NoError(t, err)
}

func TestStore_EvictsLeastRecentlyUsed(t *testing.T) {
	s := NewStore(2, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, run("a")))
	require.NoError(t, s.Load(ctx, run("b")))
	_, err := s.GetRun(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, s.Load(ctx, run("c"))) // "b" is least recently used

	_, err = s.GetRun(ctx, "b")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	_, err = s.GetRun(ctx, "a")
	assert.NoError(t, err)
	_, err = s.GetRun(ctx, "c")
	assert.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestStore_ReloadReplacesRun(t *testing.T) {
	s := NewStore(2, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, &domain.Run{ID: "a", Seed: 1}))
	require.NoError(t, s.Load(ctx, &domain.Run{ID: "a", Seed: 2}))

	got, err := s.GetRun(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.Seed)
	assert.Equal(t, 1, s.Len())
}

func TestStore_RunsExpireAfterTTL(t *testing.T) {
	clock := fakeClock(t)
	s := NewStore(10, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, run("a")))

	clock.Advance(29 * time.Minute)
	_, err := s.GetRun(ctx, "a")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = s.GetRun(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	assert.Zero(t, s.Len())
}

func TestStore_ReloadRestartsExpiry(t *testing.T) {
	clock := fakeClock(t)
	s := NewStore(10, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, run("a")))
	clock.Advance(20 * time.Minute)
	require.NoError(t, s.Load(ctx, run("a")))
	clock.Advance(20 * time.Minute)

	_, err := s.GetRun(ctx, "a")
	assert.NoError(t, err)
}

func TestStore_LoadDropsExpiredRuns(t *testing.T) {
	clock := fakeClock(t)
	s := NewStore(10, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, run("old-1")))
	require.NoError(t, s.Load(ctx, run("old-2")))
	clock.Advance(2 * time.Minute)

	require.NoError(t, s.Load(ctx, run("new")))
	assert.Equal(t, 1, s.Len())
}

func TestStore_ZeroTTLNeverExpires(t *testing.T) {
	clock := fakeClock(t)
	s := NewStore(10, 0)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, run("a")))
	clock.Advance(1000 * time.Hour)

	_, err := s.GetRun(ctx, "a")
	assert.NoError(t, err)
}
