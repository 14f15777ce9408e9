package connect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nmxmxh/referral-leaderboard/internal/config"
)

func TestConnectPostgres_GivesUp(t *testing.T) {
	cfg := &config.Config{
		DBHost:                   "127.0.0.1",
		DBPort:                   "1",
		DBUser:                   "postgres",
		DBPassword:               "postgres",
		DBName:                   "referrals",
		DBSSLMode:                "disable",
		DBMaxOpenConns:           2,
		DBMaxIdleConns:           1,
		DBConnMaxLifetimeMinutes: 1,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	db, err := ConnectPostgres(ctx, zaptest.NewLogger(t), cfg)
	require.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "failed to connect to database")
	assert.Less(t, time.Since(start), 10*time.Second)
}
