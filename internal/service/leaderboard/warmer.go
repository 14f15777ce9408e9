package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nmxmxh/referral-leaderboard/pkg/logger"
)

// WarmFunc refreshes cached leaderboards.
type WarmFunc func(ctx context.Context) error

// Warmer periodically refreshes every tracked leaderboard variant so hot
// boards are repopulated before readers miss. Runs never overlap.
type Warmer struct {
	cron    *cron.Cron
	timeout time.Duration
	log     *zap.Logger
}

// NewWarmer schedules warm on the given cron spec (e.g. "@every 1m").
func NewWarmer(schedule string, timeout time.Duration, warm WarmFunc, log *zap.Logger) (*Warmer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultComputeTimeout
	}
	w := &Warmer{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: timeout,
		log:     logger.Module(log, "leaderboard_warmer"),
	}
	if _, err := w.cron.AddFunc(schedule, func() { w.run(warm) }); err != nil {
		return nil, fmt.Errorf("invalid warm schedule %q: %w", schedule, err)
	}
	return w, nil
}

func (w *Warmer) run(warm WarmFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	start := time.Now()
	if err := warm(ctx); err != nil {
		w.log.Warn("Leaderboard warm-up failed", zap.Error(err))
		return
	}
	w.log.Debug("Leaderboard warm-up done", zap.Duration("took", time.Since(start)))
}

// Start runs the schedule in the background.
func (w *Warmer) Start() {
	w.cron.Start()
}

// Stop halts the schedule and waits for a running warm-up, or ctx, to finish.
func (w *Warmer) Stop(ctx context.Context) {
	select {
	case <-w.cron.Stop().Done():
	case <-ctx.Done():
	}
}
