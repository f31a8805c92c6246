// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// TrainingDependencies defines the interface for training batch consumption.
type TrainingDependencies interface {
	MarkTrainingBatch(ctx context.Context, limit int) (int, error)
}

// TrainingHandler marks feedback batches as consumed by model training.
type TrainingHandler struct {
	deps TrainingDependencies
}

// NewTrainingHandler creates a new training handler.
func NewTrainingHandler(deps TrainingDependencies) *TrainingHandler {
	return &TrainingHandler{deps: deps}
}

type trainingRequest struct {
	Limit int `json:"limit"`
}

type trainingResponse struct {
	Marked int `json:"marked"`
}

// HandleMarkTraining handles POST /training/mark requests. An empty body or
// zero limit consumes up to the training threshold.
func (h *TrainingHandler) HandleMarkTraining(w http.ResponseWriter, r *http.Request) {
	const op = "api.mark_training"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req trainingRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}
	if req.Limit < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	marked, err := h.deps.MarkTrainingBatch(r.Context(), req.Limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trainingResponse{Marked: marked})
}
