// Package health provides HTTP health check endpoints for probes and load
// balancers.
package health

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"
)

// Status represents the health status of the application.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// Response represents a health check response.
type Response struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version,omitempty"`
	Uptime    string           `json:"uptime,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
}

// Check represents an individual health check result.
type Check struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Checker reports the health of a single dependency.
type Checker func(ctx context.Context) Check

// Handler provides the liveness and readiness endpoints.
type Handler struct {
	version string
	start   time.Time
	now     func() time.Time

	mu       sync.RWMutex
	checkers map[string]Checker
}

// New creates a new health check handler.
func New(version string) *Handler {
	return &Handler{
		version:  version,
		start:    time.Now(),
		now:      time.Now,
		checkers: make(map[string]Checker),
	}
}

// AddCheck adds a named readiness check.
func (h *Handler) AddCheck(name string, checker Checker) {
	h.mu.Lock()
	h.checkers[name] = checker
	h.mu.Unlock()
}

// Live returns 200 as long as the process can serve requests.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	write(w, http.StatusOK, h.response(StatusHealthy))
}

// Ready runs every check and returns 503 when any of them fails.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checkers := maps.Clone(h.checkers)
	h.mu.RUnlock()

	res := h.response(StatusHealthy)
	res.Checks = make(map[string]Check, len(checkers))

	ctx := r.Context()
	for _, name := range slices.Sorted(maps.Keys(checkers)) {
		start := time.Now()
		check := checkers[name](ctx)
		check.Latency = time.Since(start).String()
		res.Checks[name] = check

		if check.Status != StatusHealthy {
			res.Status = StatusUnhealthy
		}
	}

	code := http.StatusOK
	if res.Status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}

	write(w, code, res)
}

func (h *Handler) response(status Status) Response {
	now := h.now()
	return Response{
		Status:    status,
		Timestamp: now,
		Version:   h.version,
		Uptime:    now.Sub(h.start).Truncate(time.Second).String(),
	}
}

func write(w http.ResponseWriter, code int, res Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(res)
}
