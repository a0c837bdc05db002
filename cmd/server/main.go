package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/twmb/franz-go/pkg/kgo"

	"titlechain/internal/ingest"
	"titlechain/internal/platform/config"
	"titlechain/internal/platform/httpserver"
	platformkafka "titlechain/internal/platform/kafka"
	"titlechain/internal/platform/logger"
	platformmetrics "titlechain/internal/platform/metrics"
	platformredis "titlechain/internal/platform/redis"
	"titlechain/internal/title"
	"titlechain/internal/title/handler"
	titlemetrics "titlechain/internal/title/metrics"
	"titlechain/internal/title/store"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resultStore, cleanup, err := buildStore(cfg, log)
	if err != nil {
		log.Error("store setup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	svc, err := title.New(resultStore,
		title.WithLogger(log),
		title.WithMetrics(titlemetrics.New()),
	)
	if err != nil {
		log.Error("service setup failed", "error", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(httpserver.RequestContext)
	router.Use(httpserver.Recovery(log))
	router.Use(httpserver.AccessLog(log))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler.New(svc, log).Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)
	metricsSrv := httpserver.New(cfg.Server.MetricsAddr, platformmetrics.Handler())

	go func() {
		log.Info("metrics listening", "addr", cfg.Server.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", "error", err)
		}
	}()

	consumerDone := startConsumer(ctx, cfg, svc, log)

	go func() {
		log.Info("titlechain listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	_ = metricsSrv.Shutdown(shutdownCtx)

	if consumerDone != nil {
		<-consumerDone
	}
}

// buildStore picks the persistence stack from configuration: in-memory by
// default, PostgreSQL when DATABASE_URL is set, with an optional Redis
// read-through cache on top.
func buildStore(cfg config.Config, log *slog.Logger) (store.Store, func(), error) {
	cleanup := func() {}

	var base store.Store = store.NewInMemory()
	if cfg.Postgres.URL != "" {
		db, err := sql.Open("pgx", cfg.Postgres.URL)
		if err != nil {
			return nil, cleanup, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, cleanup, err
		}
		base = store.NewPostgres(db)
		cleanup = func() { db.Close() }
		log.Info("using postgres result store")
	} else {
		log.Info("using in-memory result store")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, cleanup, err
	}
	if redisClient == nil {
		return base, cleanup, nil
	}

	inner := cleanup
	cleanup = func() {
		redisClient.Close()
		inner()
	}
	log.Info("analysis cache enabled")
	return store.NewCached(base, redisClient.Client,
		store.WithCacheTTL(cfg.Redis.CacheTTL),
		store.WithCacheLogger(log),
	), cleanup, nil
}

// startConsumer runs the Kafka ingest loop when brokers are configured.
// Returns nil when ingest is disabled.
func startConsumer(ctx context.Context, cfg config.Config, svc *title.Service, log *slog.Logger) <-chan struct{} {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("kafka ingest disabled")
		return nil
	}

	client, err := platformkafka.NewClient(cfg.Kafka,
		kgo.ConsumerGroup(cfg.Kafka.Group),
		kgo.ConsumeTopics(cfg.Kafka.InstrumentsTopic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		log.Error("kafka setup failed", "error", err)
		os.Exit(1)
	}

	if err := platformkafka.EnsureTopics(ctx, client, cfg.Kafka.InstrumentsTopic, cfg.Kafka.AnalysesTopic); err != nil {
		log.Error("kafka topic setup failed", "error", err)
		os.Exit(1)
	}

	consumer := ingest.NewConsumer(client, svc,
		ingest.NewResultPublisher(client, cfg.Kafka.AnalysesTopic),
		ingest.WithLogger(log),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer client.Close()
		log.Info("kafka ingest running",
			"topic", cfg.Kafka.InstrumentsTopic,
			"group", cfg.Kafka.Group,
		)
		if err := consumer.Run(ctx); err != nil {
			log.Error("kafka ingest stopped", "error", err)
		}
	}()
	return done
}
