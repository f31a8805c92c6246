// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/kaliber/internal/adapters/recstore"
	"github.com/okian/kaliber/internal/domain/model"
	"github.com/okian/kaliber/internal/domain/types"
)

// RecommendationsHandler registers recommendations so feedback can reference
// them. Production deployments receive recommendations from the upstream
// generator; this intake endpoint feeds local and seeded environments.
type RecommendationsHandler struct {
	recs recstore.Store
}

// NewRecommendationsHandler creates a new recommendations intake handler.
func NewRecommendationsHandler(recs recstore.Store) *RecommendationsHandler {
	return &RecommendationsHandler{recs: recs}
}

// recommendationRequest mirrors the OpenAPI schema for POST /recommendations.
type recommendationRequest struct {
	ID             string  `json:"id,omitempty"`
	TargetEntityID string  `json:"target_entity_id"`
	Action         string  `json:"action"`
	Channel        string  `json:"channel"`
	Theme          string  `json:"theme,omitempty"`
	Confidence     float64 `json:"confidence"`
}

func (rr recommendationRequest) validate() error {
	switch {
	case strings.TrimSpace(rr.TargetEntityID) == "":
		return errors.New("missing target_entity_id")
	case !types.ActionType(rr.Action).IsValid():
		return errors.New("invalid action")
	case !types.Channel(rr.Channel).IsValid():
		return errors.New("invalid channel")
	}
	return nil
}

// HandlePostRecommendation handles POST /recommendations requests.
func (h *RecommendationsHandler) HandlePostRecommendation(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_recommendation"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rec := model.Recommendation{
		ID:             req.ID,
		TargetEntityID: req.TargetEntityID,
		Action:         types.ActionType(req.Action),
		Channel:        types.Channel(req.Channel),
		Theme:          req.Theme,
		Confidence:     req.Confidence,
		Status:         types.StatusPending,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	if err := h.recs.Put(r.Context(), rec); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}
