// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	service "github.com/okian/kaliber/internal/app"
)

// MaturationDependencies defines the interface for the maturation batch scan.
type MaturationDependencies interface {
	MeasurePendingOutcomes(ctx context.Context) (service.BatchResult, error)
}

// MaturationHandler triggers the pending-outcome batch scan.
type MaturationHandler struct {
	deps MaturationDependencies
}

// NewMaturationHandler creates a new maturation handler.
func NewMaturationHandler(deps MaturationDependencies) *MaturationHandler {
	return &MaturationHandler{deps: deps}
}

// HandleMeasurePending handles POST /outcomes/measure requests.
func (h *MaturationHandler) HandleMeasurePending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	res, err := h.deps.MeasurePendingOutcomes(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
