// Package seedfeedback drives a running kaliber instance with generated
// recommendations, feedback, and outcomes, then verifies the learning
// metrics reflect what was submitted.
package seedfeedback

import "time"

// Config holds configuration for the seed run.
type Config struct {
	BaseURL            string        // Base URL of the service
	NumRecommendations int           // Number of recommendations to register
	FeedbackRatio      float64       // Fraction of recommendations that receive feedback
	MeasureRatio       float64       // Fraction of feedback that gets a manually measured outcome
	Workers            int           // Number of concurrent workers
	Timeout            time.Duration // HTTP request timeout
	Verbose            bool          // Enable verbose logging
}

// recommendation mirrors the POST /recommendations request body.
type recommendation struct {
	ID             string  `json:"id"`
	TargetEntityID string  `json:"target_entity_id"`
	Action         string  `json:"action"`
	Channel        string  `json:"channel"`
	Theme          string  `json:"theme,omitempty"`
	Confidence     float64 `json:"confidence"`
}

// feedback mirrors the POST /feedback request body.
type feedback struct {
	RecommendationID string `json:"recommendation_id"`
	FeedbackType     string `json:"feedback_type"`
	FeedbackBy       string `json:"feedback_by,omitempty"`
	FeedbackReason   string `json:"feedback_reason,omitempty"`
}

// feedbackEvent is the subset of the recorded event the seeder needs back.
type feedbackEvent struct {
	ID           string `json:"id"`
	FeedbackType string `json:"feedback_type"`
}

// outcome mirrors the POST /feedback/{id}/outcome request body.
type outcome struct {
	OutcomeType     string   `json:"outcome_type"`
	OutcomeValue    *float64 `json:"outcome_value,omitempty"`
	EngagementAfter *float64 `json:"engagement_after,omitempty"`
}

// learningSnapshot is the subset of GET /metrics/learning the seeder verifies.
type learningSnapshot struct {
	TotalRecommendations  int     `json:"total_recommendations"`
	OverallAcceptanceRate float64 `json:"overall_acceptance_rate"`
	MeasuredCount         int     `json:"measured_count"`
	CalibrationScore      float64 `json:"calibration_score"`
}

// Stats holds seed run statistics.
type Stats struct {
	RecommendationsCreated int
	FeedbackSubmitted      int
	FeedbackFailed         int
	OutcomesMeasured       int
	OutcomesFailed         int
	StartTime              time.Time
	EndTime                time.Time
	Duration               time.Duration
}
