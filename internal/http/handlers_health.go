package httpx

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one dependency; nil means healthy.
type HealthCheck func(ctx context.Context) error

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler answers 200 {"status":"ok"} when every check passes and 503
// naming the failed dependencies otherwise. Checks run concurrently under a
// shared deadline. HEAD gets the status code only.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := runHealthChecks(r.Context(), checks)
		status := http.StatusOK
		if report.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Cache-Control", "no-store")
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			return
		}
		WriteJSON(w, status, report)
	}
}

func runHealthChecks(ctx context.Context, checks map[string]HealthCheck) healthReport {
	report := healthReport{Status: "ok"}
	if len(checks) == 0 {
		return report
	}
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	report.Checks = make(map[string]string, len(checks))
	for name, check := range checks {
		g.Go(func() error {
			result := "ok"
			if err := check(ctx); err != nil {
				result = "unavailable"
			}
			mu.Lock()
			report.Checks[name] = result
			if result != "ok" {
				report.Status = "degraded"
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return report
}
