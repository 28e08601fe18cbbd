package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/couchcryptid/windsim/internal/domain"
)

const keyPrefix = "windsim:run:"

// Store keeps runs in Redis as JSON documents with a TTL.
// It implements pipeline.Sink and the HTTP run reader.
type Store struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewStore wraps a Redis client. Runs expire after ttl.
func NewStore(client *goredis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Name() string { return "redis" }

// Load saves the run under its ID, replacing any previous copy.
func (s *Store) Load(ctx context.Context, run *domain.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	if err := s.client.Set(ctx, runKey(run.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save run to redis: %w", err)
	}
	return nil
}

// GetRun loads a run by ID, or returns domain.ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	data, err := s.client.Get(ctx, runKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run from redis: %w", err)
	}

	var run domain.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("unmarshal run: %w", err)
	}
	return &run, nil
}

// CheckReadiness pings Redis.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func runKey(id string) string {
	return keyPrefix + id
}
