// Package learning computes acceptance, calibration and effectiveness
// statistics from recorded feedback events. Everything in this package is a
// pure function of its input: no storage access, no side effects, safe to
// re-run for any window.
package learning

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/kaliber/internal/domain/model"
	"github.com/okian/kaliber/internal/domain/types"
)

// Calibration scoring constants. A weighted mean absolute error of
// errorZeroScore or worse maps to a score of zero.
const (
	errorScoreSlope = 2.0
	errorZeroScore  = 0.5
)

// calibrationRanges are the fixed confidence partitions of the calibration
// table. Each bucket covers [Low, High) except the last, which includes 1.0.
var calibrationRanges = []struct{ Low, High float64 }{
	{0.0, 0.5},
	{0.5, 0.65},
	{0.65, 0.75},
	{0.75, 0.85},
	{0.85, 1.0},
}

// CalibrationBucket is one row of the calibration table: how often
// recommendations in a confidence range actually succeeded versus how often
// the model said they would.
type CalibrationBucket struct {
	RangeLow             float64 `json:"range_low"`
	RangeHigh            float64 `json:"range_high"`
	PredictedSuccessRate float64 `json:"predicted_success_rate"`
	ActualSuccessRate    float64 `json:"actual_success_rate"`
	SampleSize           int     `json:"sample_size"`
}

// Effectiveness summarizes how one action type or channel performed.
type Effectiveness struct {
	RecommendedCount     int     `json:"recommended_count"`
	ExecutedCount        int     `json:"executed_count"`
	PositiveOutcomeCount int     `json:"positive_outcome_count"`
	AvgOutcomeValue      float64 `json:"avg_outcome_value"`
}

// Snapshot is the derived learning-metrics view for one time window. It is
// never persisted; callers recompute it on demand.
type Snapshot struct {
	Period string `json:"period"`

	TotalRecommendations int `json:"total_recommendations"`
	AcceptedCount        int `json:"accepted_count"`
	RejectedCount        int `json:"rejected_count"`
	ModifiedCount        int `json:"modified_count"`
	ExpiredCount         int `json:"expired_count"`

	OverallAcceptanceRate  float64                      `json:"overall_acceptance_rate"`
	AcceptanceByAction     map[types.ActionType]float64 `json:"acceptance_by_action"`
	AcceptanceByConfidence map[string]float64           `json:"acceptance_by_confidence"`

	MeasuredCount       int     `json:"measured_count"`
	PositiveOutcomeRate float64 `json:"positive_outcome_rate"`
	AvgEngagementChange float64 `json:"avg_engagement_change"`
	AvgMSIChange        float64 `json:"avg_msi_change"`

	Calibration      []CalibrationBucket `json:"calibration"`
	CalibrationScore float64             `json:"calibration_score"`

	ActionEffectiveness  map[types.ActionType]Effectiveness `json:"action_effectiveness"`
	ChannelEffectiveness map[types.Channel]Effectiveness    `json:"channel_effectiveness"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Calculate derives a Snapshot from the feedback events whose FeedbackAt
// falls inside [start, end]. Events outside the window are ignored, so
// callers may pass a superset.
func Calculate(events []model.FeedbackEvent, start, end time.Time) Snapshot {
	window := make([]model.FeedbackEvent, 0, len(events))
	for _, e := range events {
		if e.FeedbackAt.Before(start) || e.FeedbackAt.After(end) {
			continue
		}
		window = append(window, e)
	}

	s := Snapshot{
		Period:      fmt.Sprintf("%s to %s", start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339)),
		GeneratedAt: time.Now().UTC(),
	}

	s.TotalRecommendations = len(window)
	for _, e := range window {
		switch {
		case e.FeedbackType.CountsAsAccepted():
			s.AcceptedCount++
		case e.FeedbackType == types.FeedbackRejected:
			s.RejectedCount++
		case e.FeedbackType == types.FeedbackModified:
			s.ModifiedCount++
		case e.FeedbackType == types.FeedbackExpired:
			s.ExpiredCount++
		}
	}
	s.OverallAcceptanceRate = ratio(s.AcceptedCount, s.TotalRecommendations)

	s.AcceptanceByAction = acceptanceByAction(window)
	s.AcceptanceByConfidence = acceptanceByConfidence(window)

	measured := make([]model.FeedbackEvent, 0, len(window))
	positive := 0
	for _, e := range window {
		if !e.OutcomeType.IsMeasured() {
			continue
		}
		measured = append(measured, e)
		if e.OutcomeType.IsPositive() {
			positive++
		}
	}
	s.MeasuredCount = len(measured)
	s.PositiveOutcomeRate = ratio(positive, len(measured))

	s.AvgEngagementChange = meanDelta(window, func(e model.FeedbackEvent) (*float64, *float64) {
		return e.EngagementBefore, e.EngagementAfter
	})
	s.AvgMSIChange = meanDelta(window, func(e model.FeedbackEvent) (*float64, *float64) {
		return e.MSIBefore, e.MSIAfter
	})

	s.Calibration = calibrationTable(measured)
	s.CalibrationScore = ScoreCalibration(s.Calibration)

	s.ActionEffectiveness = actionEffectiveness(window)
	s.ChannelEffectiveness = channelEffectiveness(window)

	return s
}

// ScoreCalibration converts a calibration table into a single quality score:
// the sample-weighted mean absolute error between predicted and actual
// success rates, mapped through max(0, 1-2*err). Perfect calibration scores
// 1; an average error of 0.5 or worse scores 0. Empty buckets carry no
// weight.
func ScoreCalibration(buckets []CalibrationBucket) float64 {
	var weightedErr, totalWeight float64
	for _, b := range buckets {
		if b.SampleSize == 0 {
			continue
		}
		w := float64(b.SampleSize)
		weightedErr += w * math.Abs(b.PredictedSuccessRate-b.ActualSuccessRate)
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return math.Max(0, 1-errorScoreSlope*(weightedErr/totalWeight))
}

func calibrationTable(measured []model.FeedbackEvent) []CalibrationBucket {
	buckets := make([]CalibrationBucket, len(calibrationRanges))
	positives := make([]int, len(calibrationRanges))
	for i, r := range calibrationRanges {
		buckets[i] = CalibrationBucket{
			RangeLow:             r.Low,
			RangeHigh:            r.High,
			PredictedSuccessRate: (r.Low + r.High) / 2,
		}
	}
	for _, e := range measured {
		i := bucketIndex(e.OriginalConfidence)
		buckets[i].SampleSize++
		if e.OutcomeType.IsPositive() {
			positives[i]++
		}
	}
	for i := range buckets {
		buckets[i].ActualSuccessRate = ratio(positives[i], buckets[i].SampleSize)
	}
	return buckets
}

// bucketIndex locates the calibration range for a confidence value. The top
// range is closed so a confidence of exactly 1.0 still lands in it.
func bucketIndex(confidence float64) int {
	for i, r := range calibrationRanges[:len(calibrationRanges)-1] {
		if confidence >= r.Low && confidence < r.High {
			return i
		}
	}
	return len(calibrationRanges) - 1
}

func acceptanceByAction(events []model.FeedbackEvent) map[types.ActionType]float64 {
	counts := make(map[types.ActionType]int)
	accepted := make(map[types.ActionType]int)
	for _, e := range events {
		counts[e.RecommendedAction]++
		if e.FeedbackType.CountsAsAccepted() {
			accepted[e.RecommendedAction]++
		}
	}
	rates := make(map[types.ActionType]float64, len(types.AllActionTypes()))
	for _, a := range types.AllActionTypes() {
		rates[a] = ratio(accepted[a], counts[a])
	}
	return rates
}

func acceptanceByConfidence(events []model.FeedbackEvent) map[string]float64 {
	counts := make(map[string]int)
	accepted := make(map[string]int)
	for _, e := range events {
		bucket := types.ConfidenceBucket(e.OriginalConfidence)
		counts[bucket]++
		if e.FeedbackType.CountsAsAccepted() {
			accepted[bucket]++
		}
	}
	rates := make(map[string]float64, 3)
	for _, bucket := range []string{types.BucketHigh, types.BucketMedium, types.BucketLow} {
		rates[bucket] = ratio(accepted[bucket], counts[bucket])
	}
	return rates
}

func actionEffectiveness(events []model.FeedbackEvent) map[types.ActionType]Effectiveness {
	out := make(map[types.ActionType]Effectiveness, len(types.AllActionTypes()))
	for _, a := range types.AllActionTypes() {
		out[a] = effectiveness(events, func(e model.FeedbackEvent) bool {
			return e.RecommendedAction == a
		})
	}
	return out
}

func channelEffectiveness(events []model.FeedbackEvent) map[types.Channel]Effectiveness {
	out := make(map[types.Channel]Effectiveness, len(types.AllChannels()))
	for _, c := range types.AllChannels() {
		out[c] = effectiveness(events, func(e model.FeedbackEvent) bool {
			return e.RecommendedChannel == c
		})
	}
	return out
}

func effectiveness(events []model.FeedbackEvent, match func(model.FeedbackEvent) bool) Effectiveness {
	var eff Effectiveness
	var valueSum float64
	var valueCount int
	for _, e := range events {
		if !match(e) {
			continue
		}
		eff.RecommendedCount++
		if !e.FeedbackType.CountsAsAccepted() {
			continue
		}
		eff.ExecutedCount++
		if !e.OutcomeType.IsMeasured() {
			continue
		}
		if e.OutcomeType.IsPositive() {
			eff.PositiveOutcomeCount++
		}
		if e.OutcomeValue != nil {
			valueSum += *e.OutcomeValue
			valueCount++
		}
	}
	if valueCount > 0 {
		eff.AvgOutcomeValue = valueSum / float64(valueCount)
	}
	return eff
}

// meanDelta averages after-before over events where both readings exist.
func meanDelta(events []model.FeedbackEvent, pick func(model.FeedbackEvent) (*float64, *float64)) float64 {
	var sum float64
	var n int
	for _, e := range events {
		before, after := pick(e)
		if before == nil || after == nil {
			continue
		}
		sum += *after - *before
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
