package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache lookup results.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Leaderboard groups the collectors of the cache-aside leaderboard path.
type Leaderboard struct {
	// CacheLookups counts cache reads by result (hit, miss, error).
	CacheLookups *prometheus.CounterVec
	// Computations counts leaderboard recomputations that actually ran.
	Computations prometheus.Counter
	// ComputeDuration tracks the time spent loading edges and ranking.
	ComputeDuration prometheus.Histogram
	// DegradedReads counts reads served without the cache.
	DegradedReads prometheus.Counter
	// Invalidations counts invalidated keys by status (ok, error).
	Invalidations *prometheus.CounterVec
	// StaleWritesSkipped counts computed results not cached because an invalidation overtook them.
	StaleWritesSkipped prometheus.Counter
}

// NewLeaderboard creates the leaderboard collectors and registers them with reg.
// A nil reg yields working but unregistered collectors.
func NewLeaderboard(reg prometheus.Registerer) *Leaderboard {
	f := promauto.With(reg)
	return &Leaderboard{
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "referral_leaderboard_cache_lookups_total",
			Help: "Leaderboard cache lookups by result",
		}, []string{"result"}),
		Computations: f.NewCounter(prometheus.CounterOpts{
			Name: "referral_leaderboard_computations_total",
			Help: "Leaderboard recomputations from the referral store",
		}),
		ComputeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "referral_leaderboard_compute_seconds",
			Help:    "Time spent recomputing a leaderboard",
			Buckets: prometheus.DefBuckets,
		}),
		DegradedReads: f.NewCounter(prometheus.CounterOpts{
			Name: "referral_leaderboard_degraded_reads_total",
			Help: "Leaderboard reads served while the cache was unavailable",
		}),
		Invalidations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "referral_leaderboard_invalidations_total",
			Help: "Leaderboard cache keys invalidated by status",
		}, []string{"status"}),
		StaleWritesSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "referral_leaderboard_stale_writes_skipped_total",
			Help: "Computed leaderboards not cached because an invalidation happened meanwhile",
		}),
	}
}

// HTTP groups the collectors of the REST layer.
type HTTP struct {
	RequestDuration *prometheus.HistogramVec
}

// NewHTTP creates the HTTP collectors and registers them with reg.
func NewHTTP(reg prometheus.Registerer) *HTTP {
	return &HTTP{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "referral_http_request_duration_seconds",
			Help:    "Time spent processing HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"action", "status"}),
	}
}

// Handler exposes the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
