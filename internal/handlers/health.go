package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zoobzio/clockz"
)

// Pinger checks that a backing store answers.
type Pinger func(ctx context.Context) error

// HealthHandler reports liveness and store reachability.
type HealthHandler struct {
	ping  Pinger
	clock clockz.Clock
}

// NewHealthHandler returns a HealthHandler. A nil ping always succeeds.
func NewHealthHandler(ping Pinger, clock clockz.Clock) *HealthHandler {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &HealthHandler{ping: ping, clock: clock}
}

// Health returns 200 when the store answers within two seconds, 503 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]string{
		"status": status,
		"time":   h.clock.Now().UTC().Format(time.RFC3339),
	})
}
