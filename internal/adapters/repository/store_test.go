package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/kaliber/internal/adapters/repository"
	"github.com/okian/kaliber/internal/domain/model"
	"github.com/okian/kaliber/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr(v float64) *float64 { return &v }

func sampleEvent(id, recID, entityID string, at time.Time) model.FeedbackEvent {
	return model.FeedbackEvent{
		ID:                 id,
		RecommendationID:   recID,
		TargetEntityID:     entityID,
		RecommendedAction:  types.ActionBoostEngagement,
		RecommendedChannel: types.ChannelEmail,
		RecommendedTheme:   "quarterly-review",
		OriginalConfidence: 0.8,
		FeedbackType:       types.FeedbackExecuted,
		FeedbackBy:         "op-7",
		FeedbackAt:         at,
		OutcomeType:        types.OutcomePending,
		EngagementBefore:   ptr(42),
	}
}

// storeSuite exercises the Store contract against any implementation.
func storeSuite(t *testing.T, name string, newStore func(t *testing.T) repository.Store) {
	t.Helper()
	ctx := context.Background()

	Convey("Given an empty "+name, t, func() {
		s := newStore(t)
		now := time.Now().UTC().Truncate(time.Microsecond)

		Convey("When inserting and reading back an event", func() {
			executedAt := now.Add(-time.Hour)
			e := sampleEvent("f-1", "rec-1", "acct-9", now)
			e.ExecutedAt = &executedAt
			So(s.Insert(ctx, e), ShouldBeNil)

			got, err := s.Get(ctx, "f-1")
			So(err, ShouldBeNil)
			So(got.RecommendationID, ShouldEqual, "rec-1")
			So(got.RecommendedTheme, ShouldEqual, "quarterly-review")
			So(got.OutcomeType, ShouldEqual, types.OutcomePending)
			So(got.EngagementBefore, ShouldNotBeNil)
			So(*got.EngagementBefore, ShouldAlmostEqual, 42.0, 1e-9)
			So(got.ExecutedAt, ShouldNotBeNil)
			So(got.ExecutedAt.Equal(executedAt), ShouldBeTrue)

			Convey("Then a duplicate id is rejected", func() {
				So(errors.Is(s.Insert(ctx, e), repository.ErrDuplicateID), ShouldBeTrue)
			})

			Convey("And lookup by recommendation finds it", func() {
				byRec, err := s.GetByRecommendation(ctx, "rec-1")
				So(err, ShouldBeNil)
				So(byRec.ID, ShouldEqual, "f-1")
			})
		})

		Convey("When reading a missing event", func() {
			_, err := s.Get(ctx, "nope")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			_, err = s.GetByRecommendation(ctx, "nope")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When listing by entity", func() {
			So(s.Insert(ctx, sampleEvent("f-1", "rec-1", "acct-9", now.Add(-3*time.Hour))), ShouldBeNil)
			So(s.Insert(ctx, sampleEvent("f-2", "rec-2", "acct-9", now.Add(-time.Hour))), ShouldBeNil)
			So(s.Insert(ctx, sampleEvent("f-3", "rec-3", "acct-9", now.Add(-2*time.Hour))), ShouldBeNil)
			So(s.Insert(ctx, sampleEvent("f-4", "rec-4", "other", now)), ShouldBeNil)

			Convey("Then results are most recent first and capped by limit", func() {
				got, err := s.ListByEntity(ctx, "acct-9", 2)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[0].ID, ShouldEqual, "f-2")
				So(got[1].ID, ShouldEqual, "f-3")
			})

			Convey("And a non-positive limit is rejected", func() {
				_, err := s.ListByEntity(ctx, "acct-9", 0)
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})
		})

		Convey("When listing by window", func() {
			So(s.Insert(ctx, sampleEvent("f-1", "rec-1", "acct-9", now.Add(-3*time.Hour))), ShouldBeNil)
			So(s.Insert(ctx, sampleEvent("f-2", "rec-2", "acct-9", now.Add(-time.Hour))), ShouldBeNil)

			got, err := s.ListByWindow(ctx, now.Add(-90*time.Minute), now)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 1)
			So(got[0].ID, ShouldEqual, "f-2")
		})

		Convey("When selecting pending events for maturation", func() {
			old := now.Add(-31 * 24 * time.Hour)
			recent := now.Add(-time.Hour)

			matured := sampleEvent("f-1", "rec-1", "acct-9", old)
			matured.ExecutedAt = &old
			fresh := sampleEvent("f-2", "rec-2", "acct-9", recent)
			fresh.ExecutedAt = &recent
			unexecuted := sampleEvent("f-3", "rec-3", "acct-9", old)

			So(s.Insert(ctx, matured), ShouldBeNil)
			So(s.Insert(ctx, fresh), ShouldBeNil)
			So(s.Insert(ctx, unexecuted), ShouldBeNil)

			cutoff := now.Add(-30 * 24 * time.Hour)
			got, err := s.ListPendingBefore(ctx, cutoff)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 1)
			So(got[0].ID, ShouldEqual, "f-1")

			Convey("Then a measured event drops out of the selection", func() {
				_, err := s.ApplyOutcome(ctx, "f-1", model.Outcome{
					Type:       types.OutcomeEngagementStable,
					MeasuredAt: now,
				})
				So(err, ShouldBeNil)

				got, err := s.ListPendingBefore(ctx, cutoff)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 0)
			})
		})

		Convey("When applying an outcome", func() {
			So(s.Insert(ctx, sampleEvent("f-1", "rec-1", "acct-9", now)), ShouldBeNil)

			got, err := s.ApplyOutcome(ctx, "f-1", model.Outcome{
				Type:            types.OutcomeEngagementImproved,
				Value:           ptr(7.5),
				MeasuredAt:      now,
				EngagementAfter: ptr(49.5),
			})
			So(err, ShouldBeNil)
			So(got.OutcomeType, ShouldEqual, types.OutcomeEngagementImproved)
			So(*got.OutcomeValue, ShouldAlmostEqual, 7.5, 1e-9)
			So(*got.EngagementAfter, ShouldAlmostEqual, 49.5, 1e-9)
			So(got.OutcomeMeasuredAt, ShouldNotBeNil)

			Convey("Then applying to a missing id fails", func() {
				_, err := s.ApplyOutcome(ctx, "nope", model.Outcome{
					Type:       types.OutcomeEngagementStable,
					MeasuredAt: now,
				})
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When marking events as used for training", func() {
			So(s.Insert(ctx, sampleEvent("f-1", "rec-1", "acct-9", now.Add(-2*time.Hour))), ShouldBeNil)
			So(s.Insert(ctx, sampleEvent("f-2", "rec-2", "acct-9", now.Add(-time.Hour))), ShouldBeNil)
			So(s.Insert(ctx, sampleEvent("f-3", "rec-3", "acct-9", now)), ShouldBeNil)

			marked, err := s.MarkUsedForTraining(ctx, 2)
			So(err, ShouldBeNil)
			So(marked, ShouldEqual, 2)

			left, err := s.CountUntrained(ctx)
			So(err, ShouldBeNil)
			So(left, ShouldEqual, 1)

			Convey("Then marking again consumes the remainder only", func() {
				marked, err := s.MarkUsedForTraining(ctx, 10)
				So(err, ShouldBeNil)
				So(marked, ShouldEqual, 1)
			})
		})

		Convey("When counting", func() {
			So(s.Count(ctx), ShouldEqual, 0)
			So(s.Insert(ctx, sampleEvent("f-1", "rec-1", "acct-9", now)), ShouldBeNil)
			So(s.Count(ctx), ShouldEqual, 1)
		})
	})
}

func TestMemoryStore(t *testing.T) {
	storeSuite(t, "memory store", func(t *testing.T) repository.Store {
		return repository.NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	storeSuite(t, "sqlite store", func(t *testing.T) repository.Store {
		s, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "kaliber.db"))
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteStoreOpenFailure(t *testing.T) {
	// A directory is not a valid database file; the constructor must fail
	// without handing back a store.
	s, err := repository.NewSQLiteStore(t.TempDir())
	if err == nil {
		_ = s.Close()
		t.Fatal("expected open error for a directory path")
	}
}
