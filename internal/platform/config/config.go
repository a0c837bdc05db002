// Package config builds process configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strings"
	"time"
)

// Config is the full process configuration.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    RedisConfig
	Kafka    Kafka
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	MetricsAddr     string
	ShutdownTimeout time.Duration
}

// Postgres holds the result-store connection settings. An empty URL selects
// the in-memory store.
type Postgres struct {
	URL string
}

// RedisConfig holds cache settings. An empty URL disables the cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// Kafka holds ingest settings. Empty brokers disable the consumer.
type Kafka struct {
	Brokers          []string
	Group            string
	InstrumentsTopic string
	AnalysesTopic    string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Server: Server{
			Addr:            envOr("TITLECHAIN_ADDR", ":8080"),
			MetricsAddr:     envOr("TITLECHAIN_METRICS_ADDR", ":9090"),
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: Postgres{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			CacheTTL:     24 * time.Hour,
		},
		Kafka: Kafka{
			Group:            envOr("KAFKA_GROUP", "titlechain-analyzer"),
			InstrumentsTopic: envOr("KAFKA_INSTRUMENTS_TOPIC", "title.instruments.v1"),
			AnalysesTopic:    envOr("KAFKA_ANALYSES_TOPIC", "title.analyses.v1"),
		},
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
