// Package main is the entry point for the referral leaderboard server.
// It wires storage, cache, events, tracing and the HTTP surface, and handles
// graceful shutdown.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/nmxmxh/referral-leaderboard/database/connect"
	"github.com/nmxmxh/referral-leaderboard/internal/config"
	"github.com/nmxmxh/referral-leaderboard/internal/repository/referral"
	"github.com/nmxmxh/referral-leaderboard/internal/server"
	"github.com/nmxmxh/referral-leaderboard/internal/server/rest"
	"github.com/nmxmxh/referral-leaderboard/internal/service/leaderboard"
	referralsvc "github.com/nmxmxh/referral-leaderboard/internal/service/referral"
	"github.com/nmxmxh/referral-leaderboard/pkg/events"
	"github.com/nmxmxh/referral-leaderboard/pkg/health"
	"github.com/nmxmxh/referral-leaderboard/pkg/logger"
	"github.com/nmxmxh/referral-leaderboard/pkg/metrics"
	"github.com/nmxmxh/referral-leaderboard/pkg/redis"
	"github.com/nmxmxh/referral-leaderboard/pkg/tracing"
)

const (
	serviceVersion  = "1.0.0"
	shutdownTimeout = 15 * time.Second
)

// store is what both the service and the coordinator need from persistence.
type store interface {
	referralsvc.Store
	leaderboard.EdgeSource
	health.HealthCheck
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Environment: cfg.AppEnv,
		LogLevel:    cfg.LogLevel,
		ServiceName: cfg.AppName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := server.WaitForShutdown(context.Background(), log)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server exited with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	_, shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    cfg.AppName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.AppEnv,
		Endpoint:       cfg.OTLPEndpoint,
		Disabled:       cfg.TracingDisabled,
	})
	if err != nil {
		log.Warn("Failed to initialize tracing, continuing without it", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	hc := health.NewHealthChecker()

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()
	hc.Register(st)

	redisClient, err := redis.NewClient(redis.Config{
		Host:         cfg.RedisHost,
		Port:         cfg.RedisPort,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
		MaxRetries:   cfg.RedisMaxRetries,
	}, log)
	if err != nil {
		return fmt.Errorf("create redis client: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Warn("Failed to close redis client", zap.Error(err))
		}
	}()
	if err := redisClient.IsAvailable(ctx); err != nil {
		// Leaderboard reads degrade to direct computation until Redis is back.
		log.Warn("Redis unavailable at startup", zap.Error(err))
	}
	hc.Register(redisClient)
	cache := redis.NewCache(redisClient, redis.NamespaceCache, redis.ContextReferral, redis.DefaultBreakerSettings())

	coord := leaderboard.NewCoordinator(cache, st, log, leaderboard.Options{
		TTL:            cfg.LeaderboardTTL,
		ComputeTimeout: cfg.LeaderboardComputeTimeout,
		RegistrySize:   cfg.LeaderboardRegistrySize,
		Metrics:        metrics.NewLeaderboard(reg),
	})

	emitter, closeEmitter, err := openEmitter(cfg, log)
	if err != nil {
		return err
	}
	defer closeEmitter()

	svc := referralsvc.NewService(log, st, coord, emitter)

	if cfg.LeaderboardWarmSchedule != "" {
		warmer, err := leaderboard.NewWarmer(cfg.LeaderboardWarmSchedule, cfg.LeaderboardComputeTimeout, coord.Warm, log)
		if err != nil {
			return err
		}
		warmer.Start()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			warmer.Stop(sctx)
		}()
	}

	httpServer := rest.NewHTTPServer(cfg.HTTPPort, rest.NewHandler(rest.Deps{
		Log:         log,
		Referral:    svc,
		Health:      hc,
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTP(reg),
	}), log)
	errCh := httpServer.Start()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(sctx); err != nil {
		log.Warn("HTTP server shutdown incomplete", zap.Error(err))
	}
	if err := shutdownTracing(sctx); err != nil {
		log.Warn("Failed to shutdown tracing", zap.Error(err))
	}
	return serveErr
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn("Using in-memory referral store; data is lost on restart")
		return referral.NewMemoryRepository(), func() {}, nil
	}

	db, err := connect.ConnectPostgres(ctx, log, cfg)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Warn("Failed to close database", zap.Error(err))
		}
	}
	repo := referral.NewRepository(db, log)
	if err := repo.Migrate(ctx); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("migrate referral schema: %w", err)
	}
	return repo, closeDB, nil
}

func openEmitter(cfg *config.Config, log *zap.Logger) (events.EventEmitter, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("No Kafka brokers configured, referral events disabled")
		return events.NopEmitter{}, func() {}, nil
	}
	kafka, err := events.NewKafkaEmitter(events.KafkaConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("create kafka emitter: %w", err)
	}
	async := events.NewConcurrentEventEmitter(kafka, 2, 256, 5*time.Second, log)
	return async, func() {
		async.Close()
		if err := kafka.Close(); err != nil {
			log.Warn("Failed to close kafka writer", zap.Error(err))
		}
	}, nil
}
