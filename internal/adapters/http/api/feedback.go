// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	service "github.com/okian/kaliber/internal/app"
	"github.com/okian/kaliber/internal/domain/model"
	"github.com/okian/kaliber/internal/domain/types"
)

// FeedbackDependencies defines the interface for feedback recording and
// outcome measurement.
type FeedbackDependencies interface {
	RecordFeedback(ctx context.Context, in service.RecordFeedbackInput) (model.FeedbackEvent, error)
	MeasureOutcome(ctx context.Context, in service.MeasureOutcomeInput) (model.FeedbackEvent, error)
	GetFeedback(ctx context.Context, recommendationID string) (model.FeedbackEvent, error)
}

// FeedbackHandler handles feedback requests.
type FeedbackHandler struct {
	deps FeedbackDependencies
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(deps FeedbackDependencies) *FeedbackHandler {
	return &FeedbackHandler{deps: deps}
}

// HandlePostFeedback handles POST /feedback requests.
func (h *FeedbackHandler) HandlePostFeedback(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_feedback"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	event, err := h.deps.RecordFeedback(r.Context(), req.toInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// HandleFeedbackPath dispatches requests under /feedback/:
// GET /feedback/{recommendation_id} returns the latest feedback for a
// recommendation; POST /feedback/{feedback_id}/outcome writes its outcome.
func (h *FeedbackHandler) HandleFeedbackPath(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/feedback/")
	if path == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	segments := strings.Split(path, "/")
	switch {
	case len(segments) == 1 && r.Method == http.MethodGet:
		h.handleGetFeedback(w, r, segments[0])
	case len(segments) == 2 && segments[1] == "outcome" && r.Method == http.MethodPost:
		h.handlePostOutcome(w, r, segments[0])
	default:
		http.NotFound(w, r)
	}
}

func (h *FeedbackHandler) handleGetFeedback(w http.ResponseWriter, r *http.Request, recommendationID string) {
	event, err := h.deps.GetFeedback(r.Context(), recommendationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *FeedbackHandler) handlePostOutcome(w http.ResponseWriter, r *http.Request, feedbackID string) {
	const op = "api.post_outcome"
	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	event, err := h.deps.MeasureOutcome(r.Context(), service.MeasureOutcomeInput{
		FeedbackID:      feedbackID,
		OutcomeType:     types.OutcomeType(req.OutcomeType),
		OutcomeValue:    req.OutcomeValue,
		EngagementAfter: req.EngagementAfter,
		MSIAfter:        req.MSIAfter,
		CPIAfter:        req.CPIAfter,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}
