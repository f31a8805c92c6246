package seedfeedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/kaliber/pkg/logger"
)

// HTTPClient wraps http.Client with a timeout.
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// postJSON posts body and decodes a 2xx response into out (if non-nil).
func (c *HTTPClient) postJSON(ctx context.Context, url string, body, out any) error {
	resp, err := c.Post(ctx, url, body)
	if err != nil {
		return err
	}
	data, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// submitRecommendations registers all generated recommendations.
func submitRecommendations(ctx context.Context, client *HTTPClient, cfg *Config, recs []recommendation, stats *Stats) error {
	url := cfg.BaseURL + "/recommendations"
	var created int64

	if err := forEachConcurrent(ctx, cfg.Workers, len(recs), func(i int) {
		if err := client.postJSON(ctx, url, recs[i], nil); err != nil {
			logger.Get().Warn(ctx, "recommendation submission failed",
				logger.String("id", recs[i].ID), logger.Error(err))
			return
		}
		atomic.AddInt64(&created, 1)
	}); err != nil {
		return err
	}

	stats.RecommendationsCreated = int(atomic.LoadInt64(&created))
	logger.Get().Info(ctx, "recommendations registered",
		logger.Int("created", stats.RecommendationsCreated),
		logger.Int("requested", len(recs)))
	return nil
}

// submitFeedback records feedback for a fraction of the recommendations and
// returns the recorded events keyed by their recommendation confidence.
func submitFeedback(ctx context.Context, client *HTTPClient, cfg *Config, recs []recommendation, stats *Stats) (map[string]float64, error) {
	url := cfg.BaseURL + "/feedback"

	var (
		mu        sync.Mutex
		recorded  = make(map[string]float64) // feedback id -> confidence
		submitted int64
		failed    int64
	)

	if err := forEachConcurrent(ctx, cfg.Workers, len(recs), func(i int) {
		if randomFloat() >= cfg.FeedbackRatio {
			return
		}
		rec := recs[i]
		fb := feedback{
			RecommendationID: rec.ID,
			FeedbackType:     generateFeedbackType(rec.Confidence),
			FeedbackBy:       "seed-operator",
		}
		var event feedbackEvent
		if err := client.postJSON(ctx, url, fb, &event); err != nil {
			atomic.AddInt64(&failed, 1)
			logger.Get().Warn(ctx, "feedback submission failed",
				logger.String("recommendation_id", rec.ID), logger.Error(err))
			return
		}
		atomic.AddInt64(&submitted, 1)
		if event.FeedbackType == "accepted" || event.FeedbackType == "executed" || event.FeedbackType == "modified" {
			mu.Lock()
			recorded[event.ID] = rec.Confidence
			mu.Unlock()
		}
	}); err != nil {
		return nil, err
	}

	stats.FeedbackSubmitted = int(atomic.LoadInt64(&submitted))
	stats.FeedbackFailed = int(atomic.LoadInt64(&failed))
	logger.Get().Info(ctx, "feedback submitted",
		logger.Int("submitted", stats.FeedbackSubmitted),
		logger.Int("failed", stats.FeedbackFailed))
	return recorded, nil
}

// measureOutcomes writes outcomes for a fraction of the accepted feedback.
func measureOutcomes(ctx context.Context, client *HTTPClient, cfg *Config, recorded map[string]float64, stats *Stats) error {
	type item struct {
		id         string
		confidence float64
	}
	items := make([]item, 0, len(recorded))
	for id, confidence := range recorded {
		items = append(items, item{id: id, confidence: confidence})
	}

	var measured, failed int64

	if err := forEachConcurrent(ctx, cfg.Workers, len(items), func(i int) {
		if randomFloat() >= cfg.MeasureRatio {
			return
		}
		it := items[i]
		url := cfg.BaseURL + "/feedback/" + it.id + "/outcome"
		if err := client.postJSON(ctx, url, generateOutcome(it.confidence), nil); err != nil {
			atomic.AddInt64(&failed, 1)
			logger.Get().Warn(ctx, "outcome measurement failed",
				logger.String("feedback_id", it.id), logger.Error(err))
			return
		}
		atomic.AddInt64(&measured, 1)
	}); err != nil {
		return err
	}

	stats.OutcomesMeasured = int(atomic.LoadInt64(&measured))
	stats.OutcomesFailed = int(atomic.LoadInt64(&failed))
	logger.Get().Info(ctx, "outcomes measured",
		logger.Int("measured", stats.OutcomesMeasured),
		logger.Int("failed", stats.OutcomesFailed))
	return nil
}

// forEachConcurrent runs fn(i) for i in [0, n) across a bounded worker pool.
func forEachConcurrent(ctx context.Context, workers, n int, fn func(i int)) error {
	if n == 0 {
		return nil
	}
	if workers > n {
		workers = n
	}

	indexChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					fn(i)
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := 0; i < n; i++ {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()
	return ctx.Err()
}
