// Package rest exposes the referral service over HTTP.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/nmxmxh/referral-leaderboard/internal/server/handlers"
	"github.com/nmxmxh/referral-leaderboard/internal/server/httputil"
	"github.com/nmxmxh/referral-leaderboard/pkg/health"
	"github.com/nmxmxh/referral-leaderboard/pkg/metrics"
)

// Routes served by NewHandler.
const (
	ReferralPath = "/api/referral"
	HealthPath   = "/healthz"
	MetricsPath  = "/metrics"
)

// Deps are the collaborators of the HTTP surface.
type Deps struct {
	Log         *zap.Logger
	Referral    handlers.ReferralService
	Health      *health.HealthChecker
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTP
}

// NewHandler builds the traced, request-id tagged router.
func NewHandler(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Health == nil {
		d.Health = health.NewHealthChecker()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.Handle(ReferralPath, otelhttp.WithRouteTag(ReferralPath, handlers.ReferralOpsHandler(d.Log, d.Referral, d.HTTPMetrics)))
	mux.Handle(HealthPath, d.Health.Handler())
	mux.Handle(MetricsPath, metrics.Handler(d.Gatherer))

	return otelhttp.NewHandler(httputil.RequestIDMiddleware(d.Log)(mux), "referral-http",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != HealthPath && r.URL.Path != MetricsPath
		}))
}

// HTTPServer runs the REST surface.
type HTTPServer struct {
	srv *http.Server
	log *zap.Logger
}

// NewHTTPServer prepares a server on addr (":8080" or "8080").
func NewHTTPServer(addr string, h http.Handler, log *zap.Logger) *HTTPServer {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = ":" + addr
	}
	return &HTTPServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second, // Mitigate Slowloris
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		log: log,
	}
}

// Addr is the configured listen address.
func (s *HTTPServer) Addr() string { return s.srv.Addr }

// Start listens in the background. The returned channel yields at most one
// error and is closed when the server stops.
func (s *HTTPServer) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		s.log.Info("Starting HTTP server", zap.String("address", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server failed", zap.Error(err))
			errCh <- err
		}
	}()
	return errCh
}

// Shutdown stops accepting requests and waits for in-flight ones or ctx.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
