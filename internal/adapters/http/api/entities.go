// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/kaliber/internal/domain/model"
)

// EntityDependencies defines the interface for entity feedback listings.
type EntityDependencies interface {
	EntityFeedback(ctx context.Context, entityID string, limit int) ([]model.FeedbackEvent, error)
}

// EntityFeedbackHandler handles entity feedback history requests.
type EntityFeedbackHandler struct {
	deps EntityDependencies
}

// NewEntityFeedbackHandler creates a new entity feedback handler.
func NewEntityFeedbackHandler(deps EntityDependencies) *EntityFeedbackHandler {
	return &EntityFeedbackHandler{deps: deps}
}

// HandleGetEntityFeedback handles GET /entities/{entity_id}/feedback requests.
// An optional limit query parameter caps the page size; zero or absent means
// the service default.
func (h *EntityFeedbackHandler) HandleGetEntityFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/entities/")
	segments := strings.Split(path, "/")
	if len(segments) != 2 || segments[0] == "" || segments[1] != "feedback" {
		http.NotFound(w, r)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		limit = n
	}

	events, err := h.deps.EntityFeedback(r.Context(), segments[0], limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if events == nil {
		events = []model.FeedbackEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}
