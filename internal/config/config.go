package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	SimulationConfig string
	OutputDir        string
	OutputFormat     string
	SinkMaxAttempts  int

	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaTraceTopic string

	DatabaseURL string

	// Run store: redis when RedisAddr is set, otherwise an in-process LRU.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RunTTL        time.Duration
	RunCacheSize  int
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	runTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("RUN_TTL", "24h"))
	if err != nil || runTTL <= 0 {
		return nil, errors.New("invalid RUN_TTL")
	}

	maxAttempts, err := positiveInt("SINK_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	cacheSize, err := positiveInt("RUN_CACHE_SIZE", 100)
	if err != nil {
		return nil, err
	}
	redisDB, err := strconv.Atoi(sharedcfg.EnvOrDefault("REDIS_DB", "0"))
	if err != nil || redisDB < 0 {
		return nil, errors.New("invalid REDIS_DB")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SimulationConfig: sharedcfg.EnvOrDefault("SIMULATION_CONFIG", "simulationConfiguration.txt"),
		OutputDir:        sharedcfg.EnvOrDefault("OUTPUT_DIR", "."),
		OutputFormat:     sharedcfg.EnvOrDefault("OUTPUT_FORMAT", "text"),
		SinkMaxAttempts:  maxAttempts,

		KafkaEnabled:    os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTraceTopic: sharedcfg.EnvOrDefault("KAFKA_TRACE_TOPIC", "wind-simulation-trace"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		RunTTL:        runTTL,
		RunCacheSize:  cacheSize,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaTraceTopic == "" {
		return nil, errors.New("KAFKA_TRACE_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func positiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}
