package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLeaderboard_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLeaderboard(reg)

	m.CacheLookups.WithLabelValues(ResultHit).Inc()
	m.CacheLookups.WithLabelValues(ResultMiss).Add(2)
	m.Computations.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues(ResultHit)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues(ResultMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Computations))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "referral_leaderboard_cache_lookups_total")
	assert.Contains(t, names, "referral_leaderboard_computations_total")
}

func TestNewLeaderboard_NilRegisterer(t *testing.T) {
	m := NewLeaderboard(nil)
	m.DegradedReads.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DegradedReads))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHTTP(reg)
	h.RequestDuration.WithLabelValues("get_leaderboard", "200").Observe(0.01)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "referral_http_request_duration_seconds")
}
