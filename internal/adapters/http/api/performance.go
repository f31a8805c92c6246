// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/kaliber/internal/domain/health"
)

// PerformanceDependencies defines the interface for model health evaluation.
type PerformanceDependencies interface {
	ModelPerformance(ctx context.Context) (health.Snapshot, error)
}

// PerformanceHandler handles model performance requests.
type PerformanceHandler struct {
	deps PerformanceDependencies
}

// NewPerformanceHandler creates a new performance handler.
func NewPerformanceHandler(deps PerformanceDependencies) *PerformanceHandler {
	return &PerformanceHandler{deps: deps}
}

// HandleGetPerformance handles GET /metrics/performance requests.
func (h *PerformanceHandler) HandleGetPerformance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap, err := h.deps.ModelPerformance(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
