// Package health derives a qualitative model-health verdict from a learning
// metrics snapshot: named indicators, an overall score and label, ranked
// improvement suggestions and training readiness. Pure computation, no I/O.
package health

import (
	"fmt"
	"sort"
	"time"

	"github.com/okian/kaliber/internal/domain/learning"
	"github.com/okian/kaliber/internal/domain/types"
)

// Status grades a single indicator.
type Status string

// Indicator statuses.
const (
	StatusOnTrack  Status = "on_track"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Trend describes where an indicator is heading relative to its target.
type Trend string

// Indicator trends.
const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// Priority ranks improvement suggestions.
type Priority string

// Suggestion priorities, highest first.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Indicator is one named health dimension with its current value, target and
// verdict. Rate indicators are expressed in percentage points.
type Indicator struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Target float64 `json:"target"`
	Trend  Trend   `json:"trend"`
	Status Status  `json:"status"`
}

// Suggestion is a rule-derived improvement recommendation.
type Suggestion struct {
	Priority Priority           `json:"priority"`
	Message  string             `json:"message"`
	Actions  []types.ActionType `json:"actions,omitempty"`
}

// TrainingReadiness reports whether enough unused feedback has accumulated
// to justify a retraining run.
type TrainingReadiness struct {
	UntrainedCount       int     `json:"untrained_count"`
	Threshold            int     `json:"threshold"`
	Ready                bool    `json:"ready"`
	EstimatedImprovement float64 `json:"estimated_improvement"`
}

// Snapshot is the derived model-performance view.
type Snapshot struct {
	OverallHealth string            `json:"overall_health"`
	HealthScore   float64           `json:"health_score"`
	Indicators    []Indicator       `json:"indicators"`
	Suggestions   []Suggestion      `json:"suggestions"`
	Training      TrainingReadiness `json:"training"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

// Indicator targets and status thresholds, in percentage points.
const (
	acceptanceTarget   = 50.0
	acceptanceOnTrack  = 40.0
	acceptanceWarning  = 30.0
	positiveTarget     = 60.0
	positiveOnTrack    = 50.0
	positiveWarning    = 40.0
	calibrationTarget  = 70.0
	calibrationOnTrack = 60.0
	calibrationWarning = 50.0

	engagementTarget  = 5.0
	engagementOnTrack = 3.0
	engagementWarning = 0.0
)

// Trend bands for rate indicators, in percentage points around the target.
const (
	trendImproveMargin = 5.0
	trendDeclineMargin = 10.0
)

// Status scores feeding the overall health mean.
const (
	scoreOnTrack  = 100.0
	scoreWarning  = 60.0
	scoreCritical = 20.0
)

// Health labels by overall score.
const (
	labelExcellentFloor = 80.0
	labelGoodFloor      = 60.0
	labelFairFloor      = 40.0
)

// Suggestion rule thresholds.
const (
	suggestAcceptanceBelow  = 40.0
	suggestPositiveBelow    = 50.0
	suggestCalibrationBelow = 60.0
	suggestActionRateBelow  = 0.30
	suggestMeasuredShare    = 0.5
)

// DefaultTrainingThreshold is the untrained-event count that marks the model
// ready for a retraining run.
const DefaultTrainingThreshold = 100

// estimatedImprovementPotential is the fixed heuristic reported once the
// training threshold is met.
const estimatedImprovementPotential = 0.05

// Evaluate derives the model-performance snapshot from one learning metrics
// snapshot and the count of feedback events not yet used for training.
func Evaluate(m learning.Snapshot, untrainedCount, trainingThreshold int) Snapshot {
	if trainingThreshold <= 0 {
		trainingThreshold = DefaultTrainingThreshold
	}

	indicators := []Indicator{
		rateIndicator("acceptance_rate", m.OverallAcceptanceRate*100, acceptanceTarget, acceptanceOnTrack, acceptanceWarning),
		rateIndicator("positive_outcome_rate", m.PositiveOutcomeRate*100, positiveTarget, positiveOnTrack, positiveWarning),
		rateIndicator("calibration_score", m.CalibrationScore*100, calibrationTarget, calibrationOnTrack, calibrationWarning),
		engagementIndicator(m.AvgEngagementChange),
	}

	score := healthScore(indicators)

	return Snapshot{
		OverallHealth: healthLabel(score),
		HealthScore:   score,
		Indicators:    indicators,
		Suggestions:   suggest(m),
		Training: TrainingReadiness{
			UntrainedCount:       untrainedCount,
			Threshold:            trainingThreshold,
			Ready:                untrainedCount >= trainingThreshold,
			EstimatedImprovement: improvementPotential(untrainedCount, trainingThreshold),
		},
		GeneratedAt: time.Now().UTC(),
	}
}

func rateIndicator(name string, value, target, onTrackFloor, warningFloor float64) Indicator {
	status := StatusCritical
	switch {
	case value >= onTrackFloor:
		status = StatusOnTrack
	case value >= warningFloor:
		status = StatusWarning
	}

	trend := TrendStable
	switch {
	case value > target+trendImproveMargin:
		trend = TrendImproving
	case value < target-trendDeclineMargin:
		trend = TrendDeclining
	}

	return Indicator{Name: name, Value: value, Target: target, Trend: trend, Status: status}
}

func engagementIndicator(value float64) Indicator {
	status := StatusCritical
	switch {
	case value >= engagementOnTrack:
		status = StatusOnTrack
	case value >= engagementWarning:
		status = StatusWarning
	}

	trend := TrendStable
	switch {
	case value > 0:
		trend = TrendImproving
	case value < 0:
		trend = TrendDeclining
	}

	return Indicator{Name: "avg_engagement_change", Value: value, Target: engagementTarget, Trend: trend, Status: status}
}

func healthScore(indicators []Indicator) float64 {
	if len(indicators) == 0 {
		return 0
	}
	var sum float64
	for _, ind := range indicators {
		switch ind.Status {
		case StatusOnTrack:
			sum += scoreOnTrack
		case StatusWarning:
			sum += scoreWarning
		case StatusCritical:
			sum += scoreCritical
		}
	}
	return sum / float64(len(indicators))
}

func healthLabel(score float64) string {
	switch {
	case score >= labelExcellentFloor:
		return "excellent"
	case score >= labelGoodFloor:
		return "good"
	case score >= labelFairFloor:
		return "fair"
	default:
		return "poor"
	}
}

func suggest(m learning.Snapshot) []Suggestion {
	var out []Suggestion

	if m.OverallAcceptanceRate*100 < suggestAcceptanceBelow {
		out = append(out, Suggestion{
			Priority: PriorityHigh,
			Message:  "acceptance rate is below 40%; review recommendation relevance and operator trust",
		})
	}
	if m.PositiveOutcomeRate*100 < suggestPositiveBelow {
		out = append(out, Suggestion{
			Priority: PriorityHigh,
			Message:  "positive outcome rate is below 50%; executed recommendations are not moving engagement",
		})
	}
	if m.CalibrationScore*100 < suggestCalibrationBelow {
		out = append(out, Suggestion{
			Priority: PriorityMedium,
			Message:  "confidence calibration is below 60%; stated confidence diverges from observed success",
		})
	}

	var weakActions []types.ActionType
	for _, a := range types.AllActionTypes() {
		if m.ActionEffectiveness[a].RecommendedCount == 0 {
			continue
		}
		if m.AcceptanceByAction[a] < suggestActionRateBelow {
			weakActions = append(weakActions, a)
		}
	}
	if len(weakActions) > 0 {
		out = append(out, Suggestion{
			Priority: PriorityMedium,
			Message:  fmt.Sprintf("%d action type(s) have acceptance below 30%%", len(weakActions)),
			Actions:  weakActions,
		})
	}

	if m.AcceptedCount > 0 && float64(m.MeasuredCount) < suggestMeasuredShare*float64(m.AcceptedCount) {
		out = append(out, Suggestion{
			Priority: PriorityLow,
			Message:  "fewer than half of accepted recommendations have measured outcomes; outcome tracking is lagging",
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank(out[i].Priority) < priorityRank(out[j].Priority)
	})
	return out
}

func priorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

func improvementPotential(untrained, threshold int) float64 {
	if untrained >= threshold {
		return estimatedImprovementPotential
	}
	return 0
}
