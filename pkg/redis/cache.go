package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	apperrors "github.com/nmxmxh/referral-leaderboard/pkg/errors"
	"github.com/nmxmxh/referral-leaderboard/pkg/logger"
)

// BreakerSettings tunes the circuit breaker that guards every cache call.
type BreakerSettings struct {
	ConsecutiveFailures uint32        // failures that open the breaker
	OpenTimeout         time.Duration // time spent open before probing again
	HalfOpenRequests    uint32        // probes allowed while half-open
}

// DefaultBreakerSettings returns the breaker settings used in production.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		OpenTimeout:         10 * time.Second,
		HalfOpenRequests:    1,
	}
}

// Cache stores opaque byte values under namespaced keys with a TTL.
// Every failure to reach Redis, including an open breaker, is reported as
// errors.ErrCacheUnavailable. A call abandoned by its caller returns the
// context error instead and does not count toward opening the breaker.
type Cache struct {
	client  *Client
	kb      *KeyBuilder
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

// NewCache creates a new Cache instance
func NewCache(client *Client, namespace, context string, bs BreakerSettings) *Cache {
	log := logger.Module(client.log, "cache").With(zap.String("context", context))
	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("redis-%s-%s", namespace, context),
		MaxRequests: bs.HalfOpenRequests,
		Timeout:     bs.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Cache circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// A miss is an answer, not a failure, and neither is a caller giving up.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil) || isCallerDone(err)
		},
	}
	return &Cache{
		client:  client,
		kb:      NewKeyBuilder(namespace, context),
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     log,
	}
}

// Key returns the fully qualified Redis key for key.
func (c *Cache) Key(key string) string {
	return c.kb.Build(key)
}

// Set stores value under key for ttlSeconds.
func (c *Cache) Set(ctx context.Context, key string, ttlSeconds int, value []byte) error {
	if key == "" {
		return fmt.Errorf("cache set: empty key: %w", apperrors.ErrInvalidArgument)
	}
	if ttlSeconds <= 0 {
		return fmt.Errorf("cache set: ttl must be positive, got %d: %w", ttlSeconds, apperrors.ErrInvalidArgument)
	}
	full := c.Key(key)
	_, err := c.execute(ctx, func() (interface{}, error) {
		return nil, c.client.Set(ctx, full, value, time.Duration(ttlSeconds)*time.Second).Err()
	})
	if isCallerDone(err) {
		return fmt.Errorf("set cache: %w", err)
	}
	if err != nil {
		c.log.Debug("failed to set cache", zap.String("key", full), zap.Error(err))
		return apperrors.Mark(fmt.Errorf("failed to set cache: %w", err), apperrors.ErrCacheUnavailable)
	}
	return nil
}

// Get returns the value stored under key. The boolean is false on a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, fmt.Errorf("cache get: empty key: %w", apperrors.ErrInvalidArgument)
	}
	full := c.Key(key)
	res, err := c.execute(ctx, func() (interface{}, error) {
		return c.client.Get(ctx, full).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if isCallerDone(err) {
		return nil, false, fmt.Errorf("get cache: %w", err)
	}
	if err != nil {
		c.log.Debug("failed to get cache", zap.String("key", full), zap.Error(err))
		return nil, false, apperrors.Mark(fmt.Errorf("failed to get cache: %w", err), apperrors.ErrCacheUnavailable)
	}
	data, _ := res.([]byte)
	return data, true, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("cache delete: empty key: %w", apperrors.ErrInvalidArgument)
	}
	full := c.Key(key)
	_, err := c.execute(ctx, func() (interface{}, error) {
		return nil, c.client.Del(ctx, full).Err()
	})
	if isCallerDone(err) {
		return fmt.Errorf("delete cache: %w", err)
	}
	if err != nil {
		c.log.Debug("failed to delete cache", zap.String("key", full), zap.Error(err))
		return apperrors.Mark(fmt.Errorf("failed to delete cache: %w", err), apperrors.ErrCacheUnavailable)
	}
	return nil
}

// execute runs req through the breaker. When req fails after ctx has ended the
// failure is reported as ctx's error so it never counts against Redis.
func (c *Cache) execute(ctx context.Context, req func() (interface{}, error)) (interface{}, error) {
	return c.breaker.Execute(func() (interface{}, error) {
		res, err := req()
		if err != nil && !errors.Is(err, redis.Nil) {
			if cerr := ctx.Err(); cerr != nil {
				return nil, cerr
			}
		}
		return res, err
	})
}

func isCallerDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// BreakerState reports the breaker state, for health output.
func (c *Cache) BreakerState() string {
	return c.breaker.State().String()
}
