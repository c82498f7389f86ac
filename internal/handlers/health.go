package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/videotube/backend/internal/respond"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds with service health information.
type HealthHandler struct {
	Database Pinger
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Database != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.Database.Ping(pingCtx); err != nil {
			respond.Error(ctx, w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}

	respond.JSON(ctx, w, http.StatusOK, map[string]string{"status": "ok"}, "healthy")
}
