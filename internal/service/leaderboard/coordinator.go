package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/nmxmxh/referral-leaderboard/internal/repository/referral"
	apperrors "github.com/nmxmxh/referral-leaderboard/pkg/errors"
	"github.com/nmxmxh/referral-leaderboard/pkg/json"
	"github.com/nmxmxh/referral-leaderboard/pkg/logger"
	"github.com/nmxmxh/referral-leaderboard/pkg/metrics"
)

const (
	defaultTTL            = 5 * time.Minute
	defaultComputeTimeout = 10 * time.Second
	defaultRegistrySize   = 64

	keyPrefix = "leaderboard:"
)

// Cache is the expiring key/value store the coordinator reads through.
// It may evict entries before their TTL.
type Cache interface {
	Set(ctx context.Context, key string, ttlSeconds int, value []byte) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
}

// EdgeSource loads the full referral graph.
type EdgeSource interface {
	FindAll(ctx context.Context) ([]referral.Referral, error)
}

// Options tunes a Coordinator. Zero values select the defaults.
type Options struct {
	TTL            time.Duration
	ComputeTimeout time.Duration
	RegistrySize   int
	Rank           RankFunc
	Metrics        *metrics.Leaderboard
}

// Coordinator serves leaderboards cache-aside. Concurrent misses for the same
// key share one computation, and every key carries a local generation so a
// computation overtaken by an invalidation never repopulates the cache.
// No lock is held across a cache or store call.
type Coordinator struct {
	cache   Cache
	store   EdgeSource
	rank    RankFunc
	ttl     time.Duration
	timeout time.Duration
	metrics *metrics.Leaderboard
	log     *zap.Logger
	tracer  trace.Tracer

	group singleflight.Group

	mu       sync.Mutex
	gens     map[string]uint64 // generations come from seq and never repeat
	seq      uint64
	floor    uint64 // generation of keys without an entry
	variants *variantRegistry
}

// NewCoordinator wires a coordinator over an injected, long-lived cache client.
func NewCoordinator(cache Cache, store EdgeSource, log *zap.Logger, opts Options) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TTL < time.Second {
		opts.TTL = defaultTTL
	}
	if opts.ComputeTimeout <= 0 {
		opts.ComputeTimeout = defaultComputeTimeout
	}
	if opts.RegistrySize <= 0 {
		opts.RegistrySize = defaultRegistrySize
	}
	if opts.Rank == nil {
		opts.Rank = Rank
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewLeaderboard(nil)
	}
	return &Coordinator{
		cache:    cache,
		store:    store,
		rank:     opts.Rank,
		ttl:      opts.TTL,
		timeout:  opts.ComputeTimeout,
		metrics:  opts.Metrics,
		log:      logger.Module(log, "leaderboard"),
		tracer:   otel.Tracer("github.com/nmxmxh/referral-leaderboard/internal/service/leaderboard"),
		gens:     make(map[string]uint64),
		variants: newVariantRegistry(opts.RegistrySize),
	}
}

// Key returns the cache key of the topN leaderboard.
func Key(topN int) string {
	return keyPrefix + strconv.Itoa(topN)
}

// GetLeaderboard returns the topN referrers, from cache when possible.
func (c *Coordinator) GetLeaderboard(ctx context.Context, topN int) ([]Entry, error) {
	if topN < 0 {
		return nil, fmt.Errorf("leaderboard size must not be negative, got %d: %w", topN, apperrors.ErrInvalidArgument)
	}
	ctx, span := c.tracer.Start(ctx, "leaderboard.Get", trace.WithAttributes(attribute.Int("leaderboard.top_n", topN)))
	defer span.End()

	c.track(ctx, topN)
	data, err := c.GetOrFetch(ctx, Key(topN), c.compute(topN), c.ttl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	entries, err := json.Decode[[]Entry](data)
	if err != nil {
		return nil, fmt.Errorf("decode leaderboard %d: %w", topN, err)
	}
	return entries, nil
}

// Refresh recomputes the topN leaderboard and overwrites its cache entry.
func (c *Coordinator) Refresh(ctx context.Context, topN int) error {
	if topN < 0 {
		return fmt.Errorf("leaderboard size must not be negative, got %d: %w", topN, apperrors.ErrInvalidArgument)
	}
	c.track(ctx, topN)
	_, err := c.fill(ctx, Key(topN), c.compute(topN), c.ttl)
	return err
}

// Warm refreshes every registered leaderboard variant.
func (c *Coordinator) Warm(ctx context.Context) error {
	var errs []error
	for _, n := range c.Variants() {
		if err := c.Refresh(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("refresh leaderboard %d: %w", n, err))
		}
	}
	return errors.Join(errs...)
}

// InvalidateLeaderboard drops every registered leaderboard variant. Failures
// are reported but the generation bump always applies locally, so a late
// computation cannot write back stale data; TTL bounds remote staleness.
func (c *Coordinator) InvalidateLeaderboard(ctx context.Context) error {
	variants := c.Variants()
	keys := make([]string, len(variants))
	for i, n := range variants {
		keys[i] = Key(n)
	}
	return c.Invalidate(ctx, keys...)
}

// Variants returns the leaderboard sizes currently tracked, ascending.
func (c *Coordinator) Variants() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.variants.all()
}

// GetOrFetch returns the cached value for key, or computes, caches and returns
// it. Concurrent callers for the same key and generation share one compute
// call. A caller whose ctx ends stops waiting; the computation keeps running
// for the others. Cache failures degrade to computing without the cache.
// The returned slice is shared between callers and must not be modified.
func (c *Coordinator) GetOrFetch(ctx context.Context, key string, compute func(context.Context) ([]byte, error), ttl time.Duration) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("cache-aside: empty key: %w", apperrors.ErrInvalidArgument)
	}
	data, found, err := c.cache.Get(ctx, key)
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, ctx.Err()
	case err != nil:
		c.metrics.CacheLookups.WithLabelValues(metrics.ResultError).Inc()
		c.metrics.DegradedReads.Inc()
		c.log.Warn("Cache unavailable, computing without it", zap.String("key", key), zap.Error(err))
	case found:
		c.metrics.CacheLookups.WithLabelValues(metrics.ResultHit).Inc()
		return data, nil
	default:
		c.metrics.CacheLookups.WithLabelValues(metrics.ResultMiss).Inc()
	}
	return c.fill(ctx, key, compute, ttl)
}

// Invalidate bumps the generation of keys and deletes them from the cache.
func (c *Coordinator) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	c.mu.Lock()
	c.seq++
	for _, k := range keys {
		c.gens[k] = c.seq
	}
	c.mu.Unlock()

	// The write that triggered us already succeeded; finish even if its caller left.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	var errs []error
	for _, k := range keys {
		if err := c.cache.Delete(ctx, k); err != nil {
			c.metrics.Invalidations.WithLabelValues("error").Inc()
			errs = append(errs, err)
			continue
		}
		c.metrics.Invalidations.WithLabelValues("ok").Inc()
	}
	if len(errs) > 0 {
		return apperrors.Mark(errors.Join(errs...), apperrors.ErrCacheUnavailable)
	}
	return nil
}

func (c *Coordinator) fill(ctx context.Context, key string, compute func(context.Context) ([]byte, error), ttl time.Duration) ([]byte, error) {
	gen := c.generation(key)
	flight := key + "@" + strconv.FormatUint(gen, 10)

	ch := c.group.DoChan(flight, func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		data, err := compute(cctx)
		if err != nil {
			return nil, err
		}
		c.populate(cctx, key, gen, data, ttl)
		return data, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// populate writes data only while key is still at generation gen. If an
// invalidation lands during the write, the entry is removed again.
func (c *Coordinator) populate(ctx context.Context, key string, gen uint64, data []byte, ttl time.Duration) {
	if c.generation(key) != gen {
		c.metrics.StaleWritesSkipped.Inc()
		return
	}
	if err := c.cache.Set(ctx, key, ttlSeconds(ttl), data); err != nil {
		c.log.Warn("Failed to populate cache", zap.String("key", key), zap.Error(err))
		return
	}
	if c.generation(key) != gen {
		c.metrics.StaleWritesSkipped.Inc()
		if err := c.cache.Delete(ctx, key); err != nil {
			c.log.Warn("Failed to drop overtaken cache entry", zap.String("key", key), zap.Error(err))
		}
	}
}

func (c *Coordinator) compute(topN int) func(context.Context) ([]byte, error) {
	return func(ctx context.Context) ([]byte, error) {
		ctx, span := c.tracer.Start(ctx, "leaderboard.Compute", trace.WithAttributes(attribute.Int("leaderboard.top_n", topN)))
		defer span.End()

		start := time.Now()
		edges, err := c.store.FindAll(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("load referral graph: %w", err)
		}
		entries, err := c.rank(edges, topN)
		if err != nil {
			return nil, err
		}
		c.metrics.Computations.Inc()
		c.metrics.ComputeDuration.Observe(time.Since(start).Seconds())
		span.SetAttributes(attribute.Int("leaderboard.edges", len(edges)))
		c.log.Debug("Recomputed leaderboard",
			zap.Int("top_n", topN),
			zap.Int("edges", len(edges)),
			zap.Duration("took", time.Since(start)))
		return json.Marshal(entries)
	}
}

func (c *Coordinator) track(ctx context.Context, topN int) {
	c.mu.Lock()
	evicted := c.variants.touch(topN)
	c.mu.Unlock()
	if len(evicted) == 0 {
		return
	}
	keys := make([]string, len(evicted))
	for i, n := range evicted {
		keys[i] = Key(n)
	}
	if err := c.Invalidate(ctx, keys...); err != nil {
		c.log.Warn("Failed to drop evicted leaderboard variants", zap.Ints("top_n", evicted), zap.Error(err))
	}
	c.forget(keys)
}

// forget drops the generation entries of keys. Raising floor to their last
// generation keeps any computation started before the drop from matching.
func (c *Coordinator) forget(keys []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		if g := c.gens[k]; g > c.floor {
			c.floor = g
		}
		delete(c.gens, k)
	}
}

func (c *Coordinator) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.gens[key]; ok {
		return g
	}
	return c.floor
}

func ttlSeconds(ttl time.Duration) int {
	if s := int(ttl / time.Second); s > 0 {
		return s
	}
	return 1
}
