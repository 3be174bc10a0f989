package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/yndnr/secdesk-go/internal/telemetry/logger"
)

type healthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, healthResponse{
		Status: "healthy",
		Time:   h.now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			logger.L(r.Context()).Warn("readiness check failed", "error", err)
			h.writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{
				Status: "unavailable",
				Time:   h.now().UTC().Format(time.RFC3339),
			})
			return
		}
	}
	h.writeJSON(w, r, http.StatusOK, healthResponse{
		Status: "ready",
		Time:   h.now().UTC().Format(time.RFC3339),
	})
}
