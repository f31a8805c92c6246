package seedfeedback

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/kaliber/pkg/logger"
)

// Run executes the complete seed and verification flow.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting kaliber feedback seed",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("recommendations", cfg.NumRecommendations),
		logger.Float64("feedbackRatio", cfg.FeedbackRatio),
		logger.Float64("measureRatio", cfg.MeasureRatio),
		logger.Int("workers", cfg.Workers))

	client := newHTTPClient(cfg.Timeout)

	if err := checkServiceHealth(ctx, client, cfg); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	recs := generateRecommendations(cfg.NumRecommendations)

	if err := submitRecommendations(ctx, client, cfg, recs, stats); err != nil {
		return fmt.Errorf("recommendation submission failed: %w", err)
	}

	recorded, err := submitFeedback(ctx, client, cfg, recs, stats)
	if err != nil {
		return fmt.Errorf("feedback submission failed: %w", err)
	}

	if err := measureOutcomes(ctx, client, cfg, recorded, stats); err != nil {
		return fmt.Errorf("outcome measurement failed: %w", err)
	}

	if err := verifyLearningMetrics(ctx, client, cfg, stats); err != nil {
		return fmt.Errorf("metrics verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "seed completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, cfg *Config) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := client.Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// verifyLearningMetrics fetches the learning snapshot and checks it reflects
// the submitted feedback.
func verifyLearningMetrics(ctx context.Context, client *HTTPClient, cfg *Config, stats *Stats) error {
	resp, err := client.Get(ctx, cfg.BaseURL+"/metrics/learning")
	if err != nil {
		return fmt.Errorf("failed to fetch learning metrics: %w", err)
	}
	data, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read learning metrics: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("learning metrics returned status %d", resp.StatusCode)
	}

	var snap learningSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode learning metrics: %w", err)
	}

	if snap.TotalRecommendations < stats.FeedbackSubmitted {
		return fmt.Errorf("learning metrics count %d below submitted feedback %d",
			snap.TotalRecommendations, stats.FeedbackSubmitted)
	}
	if stats.OutcomesMeasured > 0 && snap.MeasuredCount == 0 {
		return fmt.Errorf("outcomes were measured but the snapshot reports none")
	}

	logger.Get().Info(ctx, "learning metrics verified",
		logger.Int("totalRecommendations", snap.TotalRecommendations),
		logger.Float64("acceptanceRate", snap.OverallAcceptanceRate),
		logger.Int("measuredCount", snap.MeasuredCount),
		logger.Float64("calibrationScore", snap.CalibrationScore))
	return nil
}

// displayFinalStats prints the final seed statistics.
func displayFinalStats(stats *Stats) {
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("recommendationsCreated", stats.RecommendationsCreated),
		logger.Int("feedbackSubmitted", stats.FeedbackSubmitted),
		logger.Int("feedbackFailed", stats.FeedbackFailed),
		logger.Int("outcomesMeasured", stats.OutcomesMeasured),
		logger.Int("outcomesFailed", stats.OutcomesFailed),
		logger.String("duration", stats.Duration.String()))
}
