package batch_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/okian/kaliber/internal/adapters/batch"
	"github.com/okian/kaliber/internal/domain/model"
	"github.com/okian/kaliber/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func events(n int) []model.FeedbackEvent {
	out := make([]model.FeedbackEvent, n)
	for i := range out {
		out[i] = model.FeedbackEvent{ID: string(rune('a' + i))}
	}
	return out
}

func TestPoolProcess(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pool with a few workers", t, func() {
		pool := batch.New(batch.WithWorkerCount(3), batch.WithName("test"))

		Convey("When every item succeeds", func() {
			var seen atomic.Int64
			res := pool.Process(ctx, events(10), func(ctx context.Context, e model.FeedbackEvent) (batch.ItemResult, error) {
				seen.Add(1)
				return batch.ItemProcessed, nil
			})

			Convey("Then all items are processed exactly once", func() {
				So(seen.Load(), ShouldEqual, 10)
				So(res.Processed, ShouldEqual, 10)
				So(res.Errors, ShouldEqual, 0)
				So(res.Skipped, ShouldEqual, 0)
			})
		})

		Convey("When some items fail", func() {
			res := pool.Process(ctx, events(6), func(ctx context.Context, e model.FeedbackEvent) (batch.ItemResult, error) {
				if e.ID == "a" || e.ID == "d" {
					return batch.ItemSkipped, errors.New("boom")
				}
				return batch.ItemProcessed, nil
			})

			Convey("Then failures are counted and the rest still processed", func() {
				So(res.Errors, ShouldEqual, 2)
				So(res.Processed, ShouldEqual, 4)
			})
		})

		Convey("When items are skipped", func() {
			res := pool.Process(ctx, events(4), func(ctx context.Context, e model.FeedbackEvent) (batch.ItemResult, error) {
				return batch.ItemSkipped, nil
			})

			Convey("Then skips are neither processed nor errors", func() {
				So(res.Skipped, ShouldEqual, 4)
				So(res.Processed, ShouldEqual, 0)
				So(res.Errors, ShouldEqual, 0)
			})
		})

		Convey("When the batch is empty", func() {
			res := pool.Process(ctx, nil, func(ctx context.Context, e model.FeedbackEvent) (batch.ItemResult, error) {
				return batch.ItemProcessed, nil
			})

			Convey("Then the result is zero-valued", func() {
				So(res, ShouldResemble, batch.Result{})
			})
		})
	})
}
