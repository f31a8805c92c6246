// Package service implements the feedback learning loop: recording operator
// feedback against recommendations, measuring outcomes, maturing unmeasured
// events, and deriving learning and model-health metrics.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/kaliber/internal/adapters/batch"
	"github.com/okian/kaliber/internal/adapters/metricsource"
	"github.com/okian/kaliber/internal/adapters/recstore"
	"github.com/okian/kaliber/internal/adapters/repository"
	"github.com/okian/kaliber/internal/domain/health"
	"github.com/okian/kaliber/internal/domain/learning"
	"github.com/okian/kaliber/internal/domain/model"
	"github.com/okian/kaliber/internal/domain/types"
	"github.com/okian/kaliber/pkg/logger"
	"github.com/okian/kaliber/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultMaturationWindow    = 30 * 24 * time.Hour
	defaultBatchWorkers        = 4
	defaultEntityFeedbackLimit = 50
	defaultMaxWindow           = 365 * 24 * time.Hour

	// Engagement delta thresholds for automatic outcome classification.
	deltaImprovedFloor = 5.0
	deltaDeclinedCeil  = -5.0

	// performanceWindow is the trailing window evaluated by ModelPerformance.
	performanceWindow = 30 * 24 * time.Hour
)

// Service is the stateless core of the learning loop. All state lives in the
// injected stores; the service itself is safe for concurrent use.
type Service struct {
	store     repository.Store
	recs      recstore.Store
	metricsrc metricsource.Provider
	pool      *batch.Pool

	maturationWindow    time.Duration
	maxWindow           time.Duration
	batchWorkers        int
	entityFeedbackLimit int
	strictOutcome       bool
	trainingThreshold   int

	logger logger.Logger
}

// New constructs a Service. Without options it runs fully in memory, which
// is what tests and local development use.
func New(opts ...Option) *Service {
	s := &Service{
		maturationWindow:    defaultMaturationWindow,
		maxWindow:           defaultMaxWindow,
		batchWorkers:        defaultBatchWorkers,
		entityFeedbackLimit: defaultEntityFeedbackLimit,
		trainingThreshold:   health.DefaultTrainingThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.recs == nil {
		s.recs = recstore.NewMemoryStore()
	}
	if s.metricsrc == nil {
		s.metricsrc = metricsource.NewMemoryProvider()
	}
	s.pool = batch.New(
		batch.WithWorkerCount(s.batchWorkers),
		batch.WithName("maturation"),
		batch.WithLogger(s.logger.Named("maturation")),
	)
	return s
}

// RecommendationStore exposes the wired recommendation store. The HTTP
// intake endpoint feeds it in local deployments.
func (s *Service) RecommendationStore() recstore.Store {
	return s.recs
}

// RecordFeedbackInput carries one operator response to a recommendation.
type RecordFeedbackInput struct {
	RecommendationID string
	FeedbackType     types.FeedbackType
	FeedbackBy       string
	FeedbackReason   string
	ExecutedAction   *types.ActionType
	ExecutedChannel  *types.Channel
	ExecutedTheme    *string
}

func (in RecordFeedbackInput) validate() error {
	if !in.FeedbackType.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFeedbackType, in.FeedbackType)
	}
	if in.ExecutedAction != nil && !in.ExecutedAction.IsValid() {
		return fmt.Errorf("%w: executed action %q", ErrInvalidFeedbackType, *in.ExecutedAction)
	}
	if in.ExecutedChannel != nil && !in.ExecutedChannel.IsValid() {
		return fmt.Errorf("%w: executed channel %q", ErrInvalidFeedbackType, *in.ExecutedChannel)
	}
	return nil
}

// RecordFeedback validates and persists a feedback event against an existing
// recommendation, captures a baseline metric snapshot, and patches the
// recommendation status exactly once.
func (s *Service) RecordFeedback(ctx context.Context, in RecordFeedbackInput) (model.FeedbackEvent, error) {
	if err := in.validate(); err != nil {
		return model.FeedbackEvent{}, err
	}

	rec, err := s.recs.Get(ctx, in.RecommendationID)
	if err != nil {
		if errors.Is(err, recstore.ErrNotFound) {
			return model.FeedbackEvent{}, fmt.Errorf("%w: %s", recstore.ErrNotFound, in.RecommendationID)
		}
		return model.FeedbackEvent{}, fmt.Errorf("load recommendation: %w", err)
	}

	now := time.Now().UTC()
	e := model.FeedbackEvent{
		ID:               uuid.NewString(),
		RecommendationID: rec.ID,
		TargetEntityID:   rec.TargetEntityID,

		RecommendedAction:  rec.Action,
		RecommendedChannel: rec.Channel,
		RecommendedTheme:   rec.Theme,
		OriginalConfidence: rec.Confidence,

		FeedbackType:   in.FeedbackType,
		FeedbackBy:     in.FeedbackBy,
		FeedbackAt:     now,
		FeedbackReason: in.FeedbackReason,

		ExecutedAction:  in.ExecutedAction,
		ExecutedChannel: in.ExecutedChannel,
		ExecutedTheme:   in.ExecutedTheme,

		OutcomeType: types.OutcomePending,
	}
	if in.FeedbackType == types.FeedbackExecuted {
		executedAt := now
		e.ExecutedAt = &executedAt
	}

	// Baseline capture is best effort: a missing entity leaves the baseline
	// fields null and never aborts the recording.
	sample, err := s.metricsrc.Current(ctx, rec.TargetEntityID)
	switch {
	case err == nil:
		engagement := sample.Engagement
		e.EngagementBefore = &engagement
		e.MSIBefore = sample.MSI
		e.CPIBefore = sample.CPI
	case errors.Is(err, metricsource.ErrNoData):
		// No reading for this entity.
	default:
		s.logger.Warn(ctx, "metric provider failed; recording without baseline",
			logger.String("entity_id", rec.TargetEntityID),
			logger.Error(err),
		)
	}

	if err := s.store.Insert(ctx, e); err != nil {
		return model.FeedbackEvent{}, fmt.Errorf("persist feedback event: %w", err)
	}

	patch := recstore.StatusPatch{Status: types.StatusForFeedback(in.FeedbackType)}
	if patch.Status == types.StatusAccepted {
		acceptedAt := now
		patch.AcceptedAt = &acceptedAt
		patch.AcceptedBy = in.FeedbackBy
	}
	if err := s.recs.PatchStatus(ctx, rec.ID, patch); err != nil {
		return model.FeedbackEvent{}, fmt.Errorf("patch recommendation status: %w", err)
	}

	metrics.RecordFeedbackRecorded(string(in.FeedbackType))
	metrics.UpdateTotalFeedback(s.store.Count(ctx))
	s.logger.Debug(ctx, "feedback recorded",
		logger.String("feedback_id", e.ID),
		logger.String("recommendation_id", rec.ID),
		logger.String("feedback_type", string(in.FeedbackType)),
	)
	return e, nil
}

// MeasureOutcomeInput carries one measured result for a feedback event.
type MeasureOutcomeInput struct {
	FeedbackID      string
	OutcomeType     types.OutcomeType
	OutcomeValue    *float64
	EngagementAfter *float64
	MSIAfter        *float64
	CPIAfter        *float64
}

// MeasureOutcome applies a measured result to a previously recorded feedback
// event. The default behavior is last-write-wins; with the strict-outcome
// guard armed, a second measurement fails with ErrAlreadyMeasured.
func (s *Service) MeasureOutcome(ctx context.Context, in MeasureOutcomeInput) (model.FeedbackEvent, error) {
	if !in.OutcomeType.IsValid() {
		return model.FeedbackEvent{}, fmt.Errorf("%w: %q", ErrInvalidOutcomeType, in.OutcomeType)
	}

	if s.strictOutcome {
		existing, err := s.store.Get(ctx, in.FeedbackID)
		if err != nil {
			return model.FeedbackEvent{}, err
		}
		if existing.OutcomeType.IsMeasured() {
			return model.FeedbackEvent{}, fmt.Errorf("%w: %s", ErrAlreadyMeasured, in.FeedbackID)
		}
	}

	e, err := s.store.ApplyOutcome(ctx, in.FeedbackID, model.Outcome{
		Type:            in.OutcomeType,
		Value:           in.OutcomeValue,
		MeasuredAt:      time.Now().UTC(),
		EngagementAfter: in.EngagementAfter,
		MSIAfter:        in.MSIAfter,
		CPIAfter:        in.CPIAfter,
	})
	if err != nil {
		return model.FeedbackEvent{}, err
	}

	metrics.RecordOutcomeMeasured(string(in.OutcomeType), "manual")
	return e, nil
}

// GetFeedback returns the most recent feedback event recorded against a
// recommendation.
func (s *Service) GetFeedback(ctx context.Context, recommendationID string) (model.FeedbackEvent, error) {
	return s.store.GetByRecommendation(ctx, recommendationID)
}

// EntityFeedback returns the feedback history of a target entity, most
// recent first. A non-positive limit falls back to the configured default.
func (s *Service) EntityFeedback(ctx context.Context, entityID string, limit int) ([]model.FeedbackEvent, error) {
	if limit <= 0 {
		limit = s.entityFeedbackLimit
	}
	return s.store.ListByEntity(ctx, entityID, limit)
}

// CalculateMetrics derives the learning metrics snapshot for [start, end].
// A zero end time means now; a zero start time means the maximum window back
// from end. Explicit windows longer than the maximum are rejected.
func (s *Service) CalculateMetrics(ctx context.Context, start, end time.Time) (learning.Snapshot, error) {
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		start = end.Add(-s.maxWindow)
	}
	if end.Before(start) {
		return learning.Snapshot{}, ErrInvalidWindow
	}
	if end.Sub(start) > s.maxWindow {
		return learning.Snapshot{}, ErrInvalidWindow
	}

	events, err := s.store.ListByWindow(ctx, start, end)
	if err != nil {
		return learning.Snapshot{}, fmt.Errorf("query feedback window: %w", err)
	}

	snap := learning.Calculate(events, start, end)
	metrics.UpdateCalibrationScore(snap.CalibrationScore)
	return snap, nil
}

// ModelPerformance evaluates model health over the trailing 30-day window.
func (s *Service) ModelPerformance(ctx context.Context) (health.Snapshot, error) {
	end := time.Now().UTC()
	m, err := s.CalculateMetrics(ctx, end.Add(-performanceWindow), end)
	if err != nil {
		return health.Snapshot{}, err
	}

	untrained, err := s.store.CountUntrained(ctx)
	if err != nil {
		return health.Snapshot{}, fmt.Errorf("count untrained events: %w", err)
	}

	snap := health.Evaluate(m, untrained, s.trainingThreshold)
	metrics.UpdateHealthScore(snap.HealthScore)
	metrics.UpdateUntrainedEvents(untrained)
	return snap, nil
}

// BatchResult reports one maturation scan.
type BatchResult struct {
	Measured int `json:"measured"`
	Errors   int `json:"errors"`
}

// MeasurePendingOutcomes closes the loop for events operators never measured
// manually: every pending event whose execution is older than the maturation
// window gets its entity re-read and its engagement delta classified. Item
// failures are counted and logged; the batch never aborts early. Safe to
// invoke concurrently with normal traffic and idempotent across runs.
func (s *Service) MeasurePendingOutcomes(ctx context.Context) (BatchResult, error) {
	cutoff := time.Now().UTC().Add(-s.maturationWindow)
	pending, err := s.store.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return BatchResult{}, fmt.Errorf("select pending events: %w", err)
	}

	metrics.RecordMaturationRun()
	metrics.UpdatePendingOutcomes(len(pending))

	res := s.pool.Process(ctx, pending, s.measurePendingItem)

	s.logger.Info(ctx, "maturation scan finished",
		logger.Int("candidates", len(pending)),
		logger.Int("measured", res.Processed),
		logger.Int("skipped", res.Skipped),
		logger.Int("errors", res.Errors),
	)
	return BatchResult{Measured: res.Processed, Errors: res.Errors}, nil
}

// measurePendingItem measures one matured event. An entity without metric
// data is skipped silently; it stays pending for a later run.
func (s *Service) measurePendingItem(ctx context.Context, e model.FeedbackEvent) (batch.ItemResult, error) {
	sample, err := s.metricsrc.Current(ctx, e.TargetEntityID)
	if errors.Is(err, metricsource.ErrNoData) {
		return batch.ItemSkipped, nil
	}
	if err != nil {
		metrics.RecordMaturationError()
		metrics.RecordErrorByComponent("maturation", "metric_fetch")
		return batch.ItemSkipped, fmt.Errorf("fetch current metric: %w", err)
	}

	baseline := sample.Engagement
	if e.EngagementBefore != nil {
		baseline = *e.EngagementBefore
	}
	delta := sample.Engagement - baseline

	engagementAfter := sample.Engagement
	if _, err := s.store.ApplyOutcome(ctx, e.ID, model.Outcome{
		Type:            classifyEngagementDelta(delta),
		Value:           &delta,
		MeasuredAt:      time.Now().UTC(),
		EngagementAfter: &engagementAfter,
		MSIAfter:        sample.MSI,
		CPIAfter:        sample.CPI,
	}); err != nil {
		metrics.RecordMaturationError()
		metrics.RecordErrorByComponent("maturation", "store_write")
		return batch.ItemSkipped, fmt.Errorf("write outcome: %w", err)
	}

	metrics.RecordOutcomeMeasured(string(classifyEngagementDelta(delta)), "batch")
	metrics.RecordMaturationMeasured()
	return batch.ItemProcessed, nil
}

// classifyEngagementDelta maps an engagement change to an outcome category.
func classifyEngagementDelta(delta float64) types.OutcomeType {
	switch {
	case delta >= deltaImprovedFloor:
		return types.OutcomeEngagementImproved
	case delta <= deltaDeclinedCeil:
		return types.OutcomeEngagementDeclined
	default:
		return types.OutcomeEngagementStable
	}
}

// MarkTrainingBatch consumes up to limit of the oldest untrained events and
// reports how many were marked. A non-positive limit uses the training
// threshold.
func (s *Service) MarkTrainingBatch(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = s.trainingThreshold
	}
	marked, err := s.store.MarkUsedForTraining(ctx, limit)
	if err != nil {
		return 0, err
	}

	untrained, err := s.store.CountUntrained(ctx)
	if err == nil {
		metrics.UpdateUntrainedEvents(untrained)
	}
	return marked, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	ctx := context.Background()

	stats := map[string]interface{}{
		"total_feedback":        s.store.Count(ctx),
		"maturation_window":     s.maturationWindow.String(),
		"batch_worker_count":    s.batchWorkers,
		"entity_feedback_limit": s.entityFeedbackLimit,
		"strict_outcome":        s.strictOutcome,
		"training_threshold":    s.trainingThreshold,
	}
	if untrained, err := s.store.CountUntrained(ctx); err == nil {
		stats["untrained_events"] = untrained
		metrics.UpdateUntrainedEvents(untrained)
	}
	metrics.UpdateTotalFeedback(s.store.Count(ctx))
	return stats
}
