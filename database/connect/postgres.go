package connect

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/nmxmxh/referral-leaderboard/internal/config"
)

const (
	maxRetries  = 5
	pingTimeout = 5 * time.Second
)

// ConnectPostgres establishes a connection to Postgres with retries and config tuning.
func ConnectPostgres(ctx context.Context, log *zap.Logger, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeMinutes) * time.Minute)

	attempt := 0
	ping := func() error {
		attempt++
		log.Info("Attempting database connection", zap.Int("attempt", attempt))
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return db.PingContext(pctx)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	err = backoff.RetryNotify(ping,
		backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx),
		func(err error, next time.Duration) {
			log.Warn("Database ping failed", zap.Error(err), zap.Duration("retry_in", next))
		})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempt, err)
	}
	log.Info("Database connection established")
	return db, nil
}
