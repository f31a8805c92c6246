// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/okian/kaliber/internal/domain/learning"
)

// LearningDependencies defines the interface for learning metrics queries.
type LearningDependencies interface {
	CalculateMetrics(ctx context.Context, start, end time.Time) (learning.Snapshot, error)
}

// LearningMetricsHandler handles learning metrics requests.
type LearningMetricsHandler struct {
	deps LearningDependencies
}

// NewLearningMetricsHandler creates a new learning metrics handler.
func NewLearningMetricsHandler(deps LearningDependencies) *LearningMetricsHandler {
	return &LearningMetricsHandler{deps: deps}
}

// HandleGetLearningMetrics handles GET /metrics/learning requests. The
// optional start and end query parameters are RFC3339 timestamps; an absent
// end means now, an absent start means the maximum query window back from
// end.
func (h *LearningMetricsHandler) HandleGetLearningMetrics(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_learning_metrics"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	start, err := parseTimeParam(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	snap, err := h.deps.CalculateMetrics(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// parseTimeParam reads an optional RFC3339 query parameter. Absent means the
// zero time.
func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("invalid " + name + "; must be RFC3339")
	}
	return t.UTC(), nil
}
