// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/kaliber/internal/adapters/recstore"
	"github.com/okian/kaliber/internal/adapters/repository"
	service "github.com/okian/kaliber/internal/app"
	"github.com/okian/kaliber/internal/domain/health"
	"github.com/okian/kaliber/internal/domain/learning"
	"github.com/okian/kaliber/internal/domain/model"
	"github.com/okian/kaliber/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RecordFeedback(ctx context.Context, in service.RecordFeedbackInput) (model.FeedbackEvent, error)
	MeasureOutcome(ctx context.Context, in service.MeasureOutcomeInput) (model.FeedbackEvent, error)
	GetFeedback(ctx context.Context, recommendationID string) (model.FeedbackEvent, error)
	EntityFeedback(ctx context.Context, entityID string, limit int) ([]model.FeedbackEvent, error)
	CalculateMetrics(ctx context.Context, start, end time.Time) (learning.Snapshot, error)
	ModelPerformance(ctx context.Context) (health.Snapshot, error)
	MeasurePendingOutcomes(ctx context.Context) (service.BatchResult, error)
	MarkTrainingBatch(ctx context.Context, limit int) (int, error)

	// RecommendationStore exposes the intake target for POST /recommendations.
	RecommendationStore() recstore.Store
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler          *HealthHandler
	statsHandler           *StatsHandler
	feedbackHandler        *FeedbackHandler
	entityHandler          *EntityFeedbackHandler
	learningHandler        *LearningMetricsHandler
	performanceHandler     *PerformanceHandler
	maturationHandler      *MaturationHandler
	trainingHandler        *TrainingHandler
	recommendationsHandler *RecommendationsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:          NewHealthHandler(),
		statsHandler:           NewStatsHandler(statsProvider),
		feedbackHandler:        NewFeedbackHandler(deps),
		entityHandler:          NewEntityFeedbackHandler(deps),
		learningHandler:        NewLearningMetricsHandler(deps),
		performanceHandler:     NewPerformanceHandler(deps),
		maturationHandler:      NewMaturationHandler(deps),
		trainingHandler:        NewTrainingHandler(deps),
		recommendationsHandler: NewRecommendationsHandler(deps.RecommendationStore()),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/feedback", MetricsMiddleware(s.feedbackHandler.HandlePostFeedback, "feedback"))
	mux.HandleFunc("/feedback/", MetricsMiddleware(s.feedbackHandler.HandleFeedbackPath, "feedback_item"))
	mux.HandleFunc("/entities/", MetricsMiddleware(s.entityHandler.HandleGetEntityFeedback, "entity_feedback"))
	mux.HandleFunc("/metrics/learning", MetricsMiddleware(s.learningHandler.HandleGetLearningMetrics, "metrics_learning"))
	mux.HandleFunc("/metrics/performance", MetricsMiddleware(s.performanceHandler.HandleGetPerformance, "metrics_performance"))
	mux.HandleFunc("/outcomes/measure", MetricsMiddleware(s.maturationHandler.HandleMeasurePending, "outcomes_measure"))
	mux.HandleFunc("/training/mark", MetricsMiddleware(s.trainingHandler.HandleMarkTraining, "training_mark"))
	mux.HandleFunc("/recommendations", MetricsMiddleware(s.recommendationsHandler.HandlePostRecommendation, "recommendations"))
}

// feedbackRequest mirrors the OpenAPI schema for POST /feedback.
type feedbackRequest struct {
	RecommendationID string  `json:"recommendation_id"`
	FeedbackType     string  `json:"feedback_type"`
	FeedbackBy       string  `json:"feedback_by,omitempty"`
	FeedbackReason   string  `json:"feedback_reason,omitempty"`
	ExecutedAction   *string `json:"executed_action,omitempty"`
	ExecutedChannel  *string `json:"executed_channel,omitempty"`
	ExecutedTheme    *string `json:"executed_theme,omitempty"`
}

func (f feedbackRequest) validate() error {
	switch {
	case strings.TrimSpace(f.RecommendationID) == "":
		return errors.New("missing recommendation_id")
	case strings.TrimSpace(f.FeedbackType) == "":
		return errors.New("missing feedback_type")
	}
	return nil
}

func (f feedbackRequest) toInput() service.RecordFeedbackInput {
	in := service.RecordFeedbackInput{
		RecommendationID: f.RecommendationID,
		FeedbackType:     types.FeedbackType(f.FeedbackType),
		FeedbackBy:       f.FeedbackBy,
		FeedbackReason:   f.FeedbackReason,
		ExecutedTheme:    f.ExecutedTheme,
	}
	if f.ExecutedAction != nil {
		action := types.ActionType(*f.ExecutedAction)
		in.ExecutedAction = &action
	}
	if f.ExecutedChannel != nil {
		channel := types.Channel(*f.ExecutedChannel)
		in.ExecutedChannel = &channel
	}
	return in
}

// outcomeRequest mirrors the OpenAPI schema for POST /feedback/{id}/outcome.
type outcomeRequest struct {
	OutcomeType     string   `json:"outcome_type"`
	OutcomeValue    *float64 `json:"outcome_value,omitempty"`
	EngagementAfter *float64 `json:"engagement_after,omitempty"`
	MSIAfter        *float64 `json:"msi_after,omitempty"`
	CPIAfter        *float64 `json:"cpi_after,omitempty"`
}

func (o outcomeRequest) validate() error {
	if strings.TrimSpace(o.OutcomeType) == "" {
		return errors.New("missing outcome_type")
	}
	return nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusForError translates service and store errors to an HTTP status and
// machine-readable code.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, recstore.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrAlreadyMeasured),
		errors.Is(err, recstore.ErrDuplicate),
		errors.Is(err, repository.ErrDuplicateID):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrInvalidFeedbackType),
		errors.Is(err, service.ErrInvalidOutcomeType),
		errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, model.ErrInvalidConfidence),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeServiceError maps err through statusForError and writes the response.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := statusForError(err)
	writeError(w, status, code, err)
}
