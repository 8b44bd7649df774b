package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"
)

// probeTimeout bounds a readiness probe.
const probeTimeout = 2 * time.Second

// HealthHandler reports whether the database is reachable.
type HealthHandler struct {
	DB *sql.DB
}

// Probe pings the database.
func (h *HealthHandler) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return h.DB.PingContext(ctx)
}

// Healthz handles GET /healthz.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.Probe(r.Context()); err != nil {
		slog.Error("health probe failed", "error", err)
		jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
