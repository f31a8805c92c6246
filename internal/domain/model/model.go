// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"time"

	"github.com/okian/kaliber/internal/domain/types"
)

// ErrInvalidConfidence is returned when a recommendation confidence falls
// outside [0,1].
var ErrInvalidConfidence = errors.New("confidence must be in [0,1]")

// Recommendation is a system-generated suggested action for a target entity.
// This service reads recommendations and patches their status; it never
// generates them.
type Recommendation struct {
	ID             string                     `json:"id"`
	TargetEntityID string                     `json:"target_entity_id"`
	Action         types.ActionType           `json:"action"`
	Channel        types.Channel              `json:"channel"`
	Theme          string                     `json:"theme,omitempty"`
	Confidence     float64                    `json:"confidence"`
	Status         types.RecommendationStatus `json:"status"`
	AcceptedAt     *time.Time                 `json:"accepted_at,omitempty"`
	AcceptedBy     string                     `json:"accepted_by,omitempty"`
}

// Validate checks the recommendation invariants.
func (r Recommendation) Validate() error {
	if r.Confidence < 0 || r.Confidence > 1 {
		return ErrInvalidConfidence
	}
	return nil
}

// MetricSample is a point-in-time reading from the entity metric provider.
// Engagement is the primary metric; MSI and CPI are optional secondary
// market-pressure readings.
type MetricSample struct {
	Engagement float64  `json:"engagement"`
	MSI        *float64 `json:"msi,omitempty"`
	CPI        *float64 `json:"cpi,omitempty"`
}

// FeedbackEvent records how an operator responded to a recommendation and,
// eventually, the measured outcome of acting on it. The Recommended* fields
// are an immutable snapshot taken at creation time; later mutation of the
// referenced recommendation does not change them.
type FeedbackEvent struct {
	ID               string `json:"id"`
	RecommendationID string `json:"recommendation_id"`
	TargetEntityID   string `json:"target_entity_id"`

	RecommendedAction  types.ActionType `json:"recommended_action"`
	RecommendedChannel types.Channel    `json:"recommended_channel"`
	RecommendedTheme   string           `json:"recommended_theme,omitempty"`
	OriginalConfidence float64          `json:"original_confidence"`

	FeedbackType   types.FeedbackType `json:"feedback_type"`
	FeedbackBy     string             `json:"feedback_by,omitempty"`
	FeedbackAt     time.Time          `json:"feedback_at"`
	FeedbackReason string             `json:"feedback_reason,omitempty"`

	ExecutedAction  *types.ActionType `json:"executed_action,omitempty"`
	ExecutedChannel *types.Channel    `json:"executed_channel,omitempty"`
	ExecutedTheme   *string           `json:"executed_theme,omitempty"`
	ExecutedAt      *time.Time        `json:"executed_at,omitempty"`

	OutcomeType       types.OutcomeType `json:"outcome_type"`
	OutcomeValue      *float64          `json:"outcome_value,omitempty"`
	OutcomeMeasuredAt *time.Time        `json:"outcome_measured_at,omitempty"`

	EngagementBefore *float64 `json:"engagement_before,omitempty"`
	EngagementAfter  *float64 `json:"engagement_after,omitempty"`
	MSIBefore        *float64 `json:"msi_before,omitempty"`
	MSIAfter         *float64 `json:"msi_after,omitempty"`
	CPIBefore        *float64 `json:"cpi_before,omitempty"`
	CPIAfter         *float64 `json:"cpi_after,omitempty"`

	UsedForTraining bool `json:"used_for_training"`
}

// Outcome bundles the fields written when an event's outcome is measured.
type Outcome struct {
	Type            types.OutcomeType
	Value           *float64
	MeasuredAt      time.Time
	EngagementAfter *float64
	MSIAfter        *float64
	CPIAfter        *float64
}

// ApplyOutcome overwrites the event's outcome fields with a measured result.
func (e *FeedbackEvent) ApplyOutcome(o Outcome) {
	e.OutcomeType = o.Type
	e.OutcomeValue = o.Value
	measuredAt := o.MeasuredAt
	e.OutcomeMeasuredAt = &measuredAt
	if o.EngagementAfter != nil {
		e.EngagementAfter = o.EngagementAfter
	}
	if o.MSIAfter != nil {
		e.MSIAfter = o.MSIAfter
	}
	if o.CPIAfter != nil {
		e.CPIAfter = o.CPIAfter
	}
}
