package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/nmxmxh/referral-leaderboard/pkg/json"
)

// Status represents the health status
type Status string

const (
	StatusUp   Status = "UP"
	StatusDown Status = "DOWN"
)

const defaultCheckTimeout = 2 * time.Second

// HealthCheck represents a health check
type HealthCheck interface {
	Check(ctx context.Context) error
	Name() string
}

// HealthChecker manages health checks
type HealthChecker struct {
	checks  []HealthCheck
	timeout time.Duration
	mu      sync.RWMutex
}

// NewHealthChecker creates a new health checker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks:  make([]HealthCheck, 0),
		timeout: defaultCheckTimeout,
	}
}

// Register adds a new health check
func (hc *HealthChecker) Register(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks = append(hc.checks, check)
}

// Check runs all health checks in parallel, each bounded by the checker timeout.
func (hc *HealthChecker) Check(ctx context.Context) map[string]error {
	hc.mu.RLock()
	checks := append([]HealthCheck(nil), hc.checks...)
	hc.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]error, len(checks))
	)
	for _, check := range checks {
		wg.Add(1)
		go func(check HealthCheck) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, hc.timeout)
			defer cancel()
			err := check.Check(cctx)
			mu.Lock()
			results[check.Name()] = err
			mu.Unlock()
		}(check)
	}
	wg.Wait()
	return results
}

// Report is the body served by Handler.
type Report struct {
	Status     Status            `json:"status"`
	Components map[string]Status `json:"components"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// Report runs every check and summarizes the result. Any failing component
// marks the whole report DOWN.
func (hc *HealthChecker) Report(ctx context.Context) Report {
	r := Report{Status: StatusUp, Components: make(map[string]Status)}
	for name, err := range hc.Check(ctx) {
		if err == nil {
			r.Components[name] = StatusUp
			continue
		}
		r.Status = StatusDown
		r.Components[name] = StatusDown
		if r.Errors == nil {
			r.Errors = make(map[string]string)
		}
		r.Errors[name] = err.Error()
	}
	return r
}

// Handler serves the health report as JSON: 200 when UP, 503 when DOWN.
func (hc *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := hc.Report(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if report.Status != StatusUp {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(report)
	})
}
