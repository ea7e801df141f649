package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/atomic"

	"registrar/pkg/platform/httputil"
)

// CheckFunc reports whether a dependency can serve traffic.
type CheckFunc func(ctx context.Context) error

// Health serves liveness and readiness. Readiness fails while drained or
// when any registered check fails.
type Health struct {
	ready   atomic.Bool
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

func NewHealth(logger *slog.Logger) *Health {
	h := &Health{
		logger:  logger,
		timeout: 2 * time.Second,
		checks:  make(map[string]CheckFunc),
	}
	h.ready.Store(true)
	return h
}

// AddCheck registers a readiness check under name.
func (h *Health) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Drain marks the process as not ready, e.g. at the start of shutdown.
func (h *Health) Drain() bool {
	return h.ready.Swap(false)
}

func (h *Health) Register(r chi.Router) {
	r.Get("/livez", h.handleLiveness)
	r.Get("/readyz", h.handleReadiness)
}

func (h *Health) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *Health) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.mu.RLock()
	defer h.mu.RUnlock()
	failed := make(map[string]string)
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
			failed[name] = "unavailable"
		}
	}
	if len(failed) > 0 {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not ready", "checks": failed})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Health) handleDrain(w http.ResponseWriter, _ *http.Request) {
	if !h.Drain() {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "already draining"})
		return
	}
	h.logger.Info("server marked as not ready")
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "draining"})
}

func (h *Health) handleUndrain(w http.ResponseWriter, _ *http.Request) {
	if h.ready.Swap(true) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "already ready"})
		return
	}
	h.logger.Info("server marked as ready")
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
