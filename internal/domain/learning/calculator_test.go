package learning_test

import (
	"testing"
	"time"

	"github.com/okian/kaliber/internal/domain/learning"
	"github.com/okian/kaliber/internal/domain/model"
	"github.com/okian/kaliber/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr(v float64) *float64 { return &v }

func event(feedback types.FeedbackType, confidence float64, at time.Time) model.FeedbackEvent {
	return model.FeedbackEvent{
		ID:                 "evt-" + string(feedback),
		RecommendationID:   "rec-1",
		TargetEntityID:     "entity-1",
		RecommendedAction:  types.ActionBoostEngagement,
		RecommendedChannel: types.ChannelEmail,
		OriginalConfidence: confidence,
		FeedbackType:       feedback,
		FeedbackAt:         at,
		OutcomeType:        types.OutcomePending,
	}
}

func TestCalculateVolumeAndAcceptance(t *testing.T) {
	Convey("Given 4 events with feedback [accepted, accepted, rejected, executed]", t, func() {
		now := time.Now().UTC()
		start := now.Add(-time.Hour)
		events := []model.FeedbackEvent{
			event(types.FeedbackAccepted, 0.8, now.Add(-30*time.Minute)),
			event(types.FeedbackAccepted, 0.8, now.Add(-20*time.Minute)),
			event(types.FeedbackRejected, 0.8, now.Add(-15*time.Minute)),
			event(types.FeedbackExecuted, 0.8, now.Add(-10*time.Minute)),
		}

		s := learning.Calculate(events, start, now)

		Convey("Then volume counters match the closed counting rules", func() {
			So(s.TotalRecommendations, ShouldEqual, 4)
			So(s.AcceptedCount, ShouldEqual, 3)
			So(s.RejectedCount, ShouldEqual, 1)
			So(s.ModifiedCount, ShouldEqual, 0)
			So(s.ExpiredCount, ShouldEqual, 0)
		})

		Convey("And the overall acceptance rate is 0.75", func() {
			So(s.OverallAcceptanceRate, ShouldAlmostEqual, 0.75, 1e-9)
		})

		Convey("And events outside the window are excluded", func() {
			old := event(types.FeedbackAccepted, 0.8, start.Add(-time.Hour))
			s2 := learning.Calculate(append(events, old), start, now)
			So(s2.TotalRecommendations, ShouldEqual, 4)
		})
	})
}

func TestCalculateConfidenceBuckets(t *testing.T) {
	Convey("Given events with confidences 0.2, 0.6 and 0.9", t, func() {
		now := time.Now().UTC()
		start := now.Add(-time.Hour)
		events := []model.FeedbackEvent{
			event(types.FeedbackAccepted, 0.2, now.Add(-3*time.Minute)),
			event(types.FeedbackRejected, 0.6, now.Add(-2*time.Minute)),
			event(types.FeedbackAccepted, 0.9, now.Add(-time.Minute)),
		}

		s := learning.Calculate(events, start, now)

		Convey("Then the bucket assignments are low, medium, high", func() {
			So(s.AcceptanceByConfidence[types.BucketLow], ShouldAlmostEqual, 1.0, 1e-9)
			So(s.AcceptanceByConfidence[types.BucketMedium], ShouldAlmostEqual, 0.0, 1e-9)
			So(s.AcceptanceByConfidence[types.BucketHigh], ShouldAlmostEqual, 1.0, 1e-9)
		})
	})
}

func TestCalculateOutcomeMetrics(t *testing.T) {
	Convey("Given a mix of measured and pending outcomes", t, func() {
		now := time.Now().UTC()
		start := now.Add(-time.Hour)

		improved := event(types.FeedbackExecuted, 0.9, now.Add(-40*time.Minute))
		improved.OutcomeType = types.OutcomeEngagementImproved
		improved.OutcomeValue = ptr(8)
		improved.EngagementBefore = ptr(50)
		improved.EngagementAfter = ptr(58)

		declined := event(types.FeedbackExecuted, 0.9, now.Add(-30*time.Minute))
		declined.OutcomeType = types.OutcomeEngagementDeclined
		declined.OutcomeValue = ptr(-6)
		declined.EngagementBefore = ptr(50)
		declined.EngagementAfter = ptr(44)

		pending := event(types.FeedbackAccepted, 0.9, now.Add(-20*time.Minute))

		s := learning.Calculate([]model.FeedbackEvent{improved, declined, pending}, start, now)

		Convey("Then only measured events feed the positive outcome rate", func() {
			So(s.MeasuredCount, ShouldEqual, 2)
			So(s.PositiveOutcomeRate, ShouldAlmostEqual, 0.5, 1e-9)
		})

		Convey("And the average engagement change uses paired readings only", func() {
			So(s.AvgEngagementChange, ShouldAlmostEqual, 1.0, 1e-9) // (8 + -6) / 2
		})

		Convey("And effectiveness tallies follow the executed subset", func() {
			eff := s.ActionEffectiveness[types.ActionBoostEngagement]
			So(eff.RecommendedCount, ShouldEqual, 3)
			So(eff.ExecutedCount, ShouldEqual, 3) // accepted + executed feedback
			So(eff.PositiveOutcomeCount, ShouldEqual, 1)
			So(eff.AvgOutcomeValue, ShouldAlmostEqual, 1.0, 1e-9) // (8 + -6) / 2
		})

		Convey("And untouched channels report zero effectiveness", func() {
			eff := s.ChannelEffectiveness[types.ChannelPhone]
			So(eff.RecommendedCount, ShouldEqual, 0)
			So(eff.AvgOutcomeValue, ShouldAlmostEqual, 0.0, 1e-9)
		})
	})
}

func TestCalibrationTable(t *testing.T) {
	Convey("Given measured events spread across confidence ranges", t, func() {
		now := time.Now().UTC()
		start := now.Add(-time.Hour)

		mk := func(confidence float64, outcome types.OutcomeType) model.FeedbackEvent {
			e := event(types.FeedbackExecuted, confidence, now.Add(-time.Minute))
			e.OutcomeType = outcome
			return e
		}

		events := []model.FeedbackEvent{
			mk(0.9, types.OutcomeEngagementImproved),
			mk(0.95, types.OutcomeEngagementDeclined),
			mk(1.0, types.OutcomeEngagementImproved),
			mk(0.3, types.OutcomeEngagementImproved),
		}

		s := learning.Calculate(events, start, now)

		Convey("Then the table has the five fixed ranges", func() {
			So(len(s.Calibration), ShouldEqual, 5)
			So(s.Calibration[0].RangeLow, ShouldAlmostEqual, 0.0, 1e-9)
			So(s.Calibration[0].RangeHigh, ShouldAlmostEqual, 0.5, 1e-9)
			So(s.Calibration[4].RangeLow, ShouldAlmostEqual, 0.85, 1e-9)
			So(s.Calibration[4].RangeHigh, ShouldAlmostEqual, 1.0, 1e-9)
		})

		Convey("And confidence 1.0 lands in the closed top range", func() {
			top := s.Calibration[4]
			So(top.SampleSize, ShouldEqual, 3)
			So(top.ActualSuccessRate, ShouldAlmostEqual, 2.0/3.0, 1e-9)
			So(top.PredictedSuccessRate, ShouldAlmostEqual, 0.925, 1e-9)
		})

		Convey("And empty ranges report zero samples and zero actual rate", func() {
			So(s.Calibration[1].SampleSize, ShouldEqual, 0)
			So(s.Calibration[1].ActualSuccessRate, ShouldAlmostEqual, 0.0, 1e-9)
		})
	})
}

func TestScoreCalibration(t *testing.T) {
	Convey("Given calibration buckets", t, func() {
		Convey("Then a perfectly calibrated bucket scores 1", func() {
			score := learning.ScoreCalibration([]learning.CalibrationBucket{
				{PredictedSuccessRate: 0.5, ActualSuccessRate: 0.5, SampleSize: 10},
			})
			So(score, ShouldAlmostEqual, 1.0, 1e-9)
		})

		Convey("And a badly miscalibrated bucket clamps to 0", func() {
			score := learning.ScoreCalibration([]learning.CalibrationBucket{
				{PredictedSuccessRate: 0.9, ActualSuccessRate: 0.1, SampleSize: 10},
			})
			So(score, ShouldAlmostEqual, 0.0, 1e-9)
		})

		Convey("And empty buckets contribute no weight", func() {
			score := learning.ScoreCalibration([]learning.CalibrationBucket{
				{PredictedSuccessRate: 0.9, ActualSuccessRate: 0.0, SampleSize: 0},
				{PredictedSuccessRate: 0.5, ActualSuccessRate: 0.4, SampleSize: 10},
			})
			So(score, ShouldAlmostEqual, 0.8, 1e-9) // 1 - 2*0.1
		})

		Convey("And a table with no samples scores 0", func() {
			So(learning.ScoreCalibration(nil), ShouldAlmostEqual, 0.0, 1e-9)
		})
	})
}

func TestCalculateEmptyWindow(t *testing.T) {
	Convey("Given an empty event set", t, func() {
		now := time.Now().UTC()
		s := learning.Calculate(nil, now.Add(-time.Hour), now)

		Convey("Then all rates are zero with no NaN propagation", func() {
			So(s.TotalRecommendations, ShouldEqual, 0)
			So(s.OverallAcceptanceRate, ShouldAlmostEqual, 0.0, 1e-9)
			So(s.PositiveOutcomeRate, ShouldAlmostEqual, 0.0, 1e-9)
			So(s.CalibrationScore, ShouldAlmostEqual, 0.0, 1e-9)
			So(s.AvgEngagementChange, ShouldAlmostEqual, 0.0, 1e-9)
			for _, rate := range s.AcceptanceByAction {
				So(rate, ShouldAlmostEqual, 0.0, 1e-9)
			}
			for _, rate := range s.AcceptanceByConfidence {
				So(rate, ShouldAlmostEqual, 0.0, 1e-9)
			}
		})
	})
}
