package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/lib/pq"

	"github.com/couchcryptid/windsim/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS simulation_runs (
	id            UUID PRIMARY KEY,
	seed          NUMERIC(20, 0) NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	config        JSONB NOT NULL,
	points        INTEGER NOT NULL,
	storm_points  INTEGER NOT NULL,
	burst_points  INTEGER NOT NULL,
	storm_windows INTEGER NOT NULL,
	burst_windows INTEGER NOT NULL,
	peak_speed    DOUBLE PRECISION NOT NULL,
	mean_speed    DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS simulation_samples (
	run_id        UUID NOT NULL REFERENCES simulation_runs (id) ON DELETE CASCADE,
	idx           INTEGER NOT NULL,
	t             DOUBLE PRECISION NOT NULL,
	wind          DOUBLE PRECISION NOT NULL,
	storm         DOUBLE PRECISION NOT NULL,
	burst         DOUBLE PRECISION NOT NULL,
	speed         DOUBLE PRECISION NOT NULL,
	storm_present BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, idx)
);
`

const insertRun = `
INSERT INTO simulation_runs (
	id, seed, created_at, config, points, storm_points, burst_points,
	storm_windows, burst_windows, peak_speed, mean_speed
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO NOTHING`

var sampleColumns = []string{"run_id", "idx", "t", "wind", "storm", "burst", "speed", "storm_present"}

// Store persists runs and their per-point samples in PostgreSQL.
// It implements pipeline.Sink.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Connect opens and pings a PostgreSQL connection pool.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	return db, nil
}

// NewStore wraps an open database.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) Name() string { return "postgres" }

// Migrate creates the run and sample tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Load inserts the run and bulk-copies its samples in one transaction.
// A run that already exists is left untouched.
func (s *Store) Load(ctx context.Context, run *domain.Run) error {
	cfg, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("marshal run config: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, insertRun, runArgs(run, cfg)...)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.logger.Info("run already stored", "run_id", run.ID)
		return tx.Commit()
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("simulation_samples", sampleColumns...))
	if err != nil {
		return fmt.Errorf("prepare sample copy: %w", err)
	}
	for _, row := range sampleRows(run) {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			stmt.Close()
			return fmt.Errorf("copy sample: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("flush sample copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("close sample copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	s.logger.Info("run stored", "run_id", run.ID, "samples", len(run.Trace))
	return nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func runArgs(run *domain.Run, cfg []byte) []any {
	sum := run.Summary
	return []any{
		run.ID,
		strconv.FormatUint(run.Seed, 10),
		run.CreatedAt,
		cfg,
		sum.Points,
		sum.StormPoints,
		sum.BurstPoints,
		sum.StormWindows,
		sum.BurstWindows,
		sum.PeakSpeed,
		sum.MeanSpeed,
	}
}

// sampleRows builds one COPY row per trace point, in sampleColumns order.
func sampleRows(run *domain.Run) [][]any {
	rows := make([][]any, len(run.Trace))
	for i, p := range run.Trace {
		rows[i] = []any{
			run.ID,
			i,
			p.Time,
			run.Wind[i].Value,
			run.Storm[i].Value,
			run.Burst[i].Value,
			p.Speed,
			p.StormPresent,
		}
	}
	return rows
}
