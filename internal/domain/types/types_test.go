package types_test

import (
	"testing"

	"github.com/okian/kaliber/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStatusForFeedback(t *testing.T) {
	Convey("Given the feedback to status mapping", t, func() {
		cases := map[types.FeedbackType]types.RecommendationStatus{
			types.FeedbackAccepted: types.StatusAccepted,
			types.FeedbackExecuted: types.StatusAccepted,
			types.FeedbackRejected: types.StatusRejected,
			types.FeedbackModified: types.StatusOverridden,
			types.FeedbackDeferred: types.StatusDeferred,
			types.FeedbackExpired:  types.StatusExpired,
		}

		Convey("Then every feedback type maps to its fixed status", func() {
			for feedback, want := range cases {
				So(types.StatusForFeedback(feedback), ShouldEqual, want)
			}
		})

		Convey("And an unknown feedback type maps to pending", func() {
			So(types.StatusForFeedback(types.FeedbackType("bogus")), ShouldEqual, types.StatusPending)
		})
	})
}

func TestConfidenceBucket(t *testing.T) {
	Convey("Given confidence values across the partition thresholds", t, func() {
		Convey("Then 0.2 is low, 0.6 is medium and 0.9 is high", func() {
			So(types.ConfidenceBucket(0.2), ShouldEqual, types.BucketLow)
			So(types.ConfidenceBucket(0.6), ShouldEqual, types.BucketMedium)
			So(types.ConfidenceBucket(0.9), ShouldEqual, types.BucketHigh)
		})

		Convey("And the boundaries land in the upper bucket", func() {
			So(types.ConfidenceBucket(0.5), ShouldEqual, types.BucketMedium)
			So(types.ConfidenceBucket(0.75), ShouldEqual, types.BucketHigh)
		})
	})
}

func TestOutcomeSets(t *testing.T) {
	Convey("Given the closed outcome set", t, func() {
		positive := []types.OutcomeType{
			types.OutcomeEngagementImproved,
			types.OutcomeCompetitiveDefended,
			types.OutcomeChannelActivated,
			types.OutcomeRelationshipRevived,
			types.OutcomeSaturationReduced,
		}
		negative := []types.OutcomeType{
			types.OutcomeEngagementDeclined,
			types.OutcomeEngagementStable,
			types.OutcomeOtherNegative,
			types.OutcomePending,
		}

		Convey("Then the positive set is exactly the closed success list", func() {
			for _, o := range positive {
				So(o.IsPositive(), ShouldBeTrue)
			}
			for _, o := range negative {
				So(o.IsPositive(), ShouldBeFalse)
			}
		})

		Convey("And pending is the only unmeasured outcome", func() {
			So(types.OutcomePending.IsMeasured(), ShouldBeFalse)
			So(types.OutcomeEngagementStable.IsMeasured(), ShouldBeTrue)
			So(types.OutcomeType("bogus").IsMeasured(), ShouldBeFalse)
		})
	})
}

func TestEnumValidity(t *testing.T) {
	Convey("Given the enum helper sets", t, func() {
		Convey("Then every declared action type validates", func() {
			for _, a := range types.AllActionTypes() {
				So(a.IsValid(), ShouldBeTrue)
			}
			So(types.ActionType("mail_merge").IsValid(), ShouldBeFalse)
		})

		Convey("And every declared channel validates", func() {
			for _, c := range types.AllChannels() {
				So(c.IsValid(), ShouldBeTrue)
			}
			So(types.Channel("fax").IsValid(), ShouldBeFalse)
		})

		Convey("And accepted plus executed count as accepted", func() {
			So(types.FeedbackAccepted.CountsAsAccepted(), ShouldBeTrue)
			So(types.FeedbackExecuted.CountsAsAccepted(), ShouldBeTrue)
			So(types.FeedbackRejected.CountsAsAccepted(), ShouldBeFalse)
			So(types.FeedbackModified.CountsAsAccepted(), ShouldBeFalse)
		})
	})
}
