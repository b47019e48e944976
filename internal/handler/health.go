package handler

import (
	"context"
	"net/http"
	"sync"
	"time"
)

const readinessTimeout = 3 * time.Second

// HealthChecker is implemented by the tour store and the Redis client.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type dependency struct {
	name  string
	check HealthChecker
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	deps []dependency
}

// NewHealthHandler registers the tour store under storeName (memory,
// postgres or mongo) and the optional cache under "redis". A nil checker is
// reported as "not configured" and does not fail readiness.
func NewHealthHandler(storeName string, store, cache HealthChecker) *HealthHandler {
	if storeName == "" {
		storeName = "store"
	}
	return &HealthHandler{deps: []dependency{
		{name: storeName, check: store},
		{name: "redis", check: cache},
	}}
}

// HealthResponse is the body of both probes.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz answers as long as the process can serve HTTP.
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz pings every configured dependency in parallel.
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	results := make([]string, len(h.deps))
	var wg sync.WaitGroup
	for i, dep := range h.deps {
		if dep.check == nil {
			results[i] = "not configured"
			continue
		}
		wg.Add(1)
		go func(i int, c HealthChecker) {
			defer wg.Done()
			if err := c.Ping(ctx); err != nil {
				results[i] = "error: " + err.Error()
				return
			}
			results[i] = "ok"
		}(i, dep.check)
	}
	wg.Wait()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.deps))}
	code := http.StatusOK
	for i, dep := range h.deps {
		resp.Checks[dep.name] = results[i]
		if results[i] != "ok" && results[i] != "not configured" {
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, resp)
}
