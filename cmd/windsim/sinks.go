package main

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	kafkaadapter "github.com/couchcryptid/windsim/internal/adapter/kafka"
	"github.com/couchcryptid/windsim/internal/adapter/memory"
	"github.com/couchcryptid/windsim/internal/adapter/postgres"
	redisadapter "github.com/couchcryptid/windsim/internal/adapter/redis"
	"github.com/couchcryptid/windsim/internal/config"
	"github.com/couchcryptid/windsim/internal/domain"
	"github.com/couchcryptid/windsim/internal/pipeline"
)

// runStore is a sink that can also serve runs back and report readiness.
type runStore interface {
	pipeline.Sink
	GetRun(ctx context.Context, id string) (*domain.Run, error)
	CheckReadiness(ctx context.Context) error
}

// outputs holds the optional external sinks and how to release them.
type outputs struct {
	sinks   []pipeline.Sink
	closers []func() error
}

func (o *outputs) close(logger *slog.Logger) {
	for i := len(o.closers) - 1; i >= 0; i-- {
		if err := o.closers[i](); err != nil {
			logger.Error("close sink", "error", err)
		}
	}
}

// openOutputs connects the Kafka and PostgreSQL sinks that are configured.
func openOutputs(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*outputs, error) {
	out := &outputs{}

	if cfg.KafkaEnabled {
		w := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTraceTopic, logger)
		out.sinks = append(out.sinks, w)
		out.closers = append(out.closers, w.Close)
		logger.Info("kafka trace publishing enabled", "topic", cfg.KafkaTraceTopic)
	}

	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			out.close(logger)
			return nil, err
		}
		store := postgres.NewStore(db, logger)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			out.close(logger)
			return nil, err
		}
		out.sinks = append(out.sinks, store)
		out.closers = append(out.closers, db.Close)
		logger.Info("postgres run storage enabled")
	}

	return out, nil
}

// openRunStore returns the redis store when REDIS_ADDR is set, otherwise an in-process LRU.
func openRunStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (runStore, func() error, error) {
	if cfg.RedisAddr == "" {
		logger.Info("using in-memory run store", "size", cfg.RunCacheSize, "ttl", cfg.RunTTL)
		return memory.NewStore(cfg.RunCacheSize, cfg.RunTTL), func() error { return nil }, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("using redis run store", "addr", cfg.RedisAddr, "ttl", cfg.RunTTL)
	return redisadapter.NewStore(client, cfg.RunTTL), client.Close, nil
}
