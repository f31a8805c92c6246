package recstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/kaliber/internal/adapters/recstore"
	"github.com/okian/kaliber/internal/domain/model"
	"github.com/okian/kaliber/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory recommendation store", t, func() {
		store := recstore.NewMemoryStore()
		rec := model.Recommendation{
			ID:             "rec-1",
			TargetEntityID: "acct-1",
			Action:         types.ActionActivateChannel,
			Channel:        types.ChannelPhone,
			Confidence:     0.6,
			Status:         types.StatusPending,
		}

		Convey("When putting and getting a recommendation", func() {
			So(store.Put(ctx, rec), ShouldBeNil)

			got, err := store.Get(ctx, "rec-1")
			So(err, ShouldBeNil)
			So(got, ShouldResemble, rec)
			So(store.Count(ctx), ShouldEqual, 1)
		})

		Convey("When writing through the client contract", func() {
			var client recstore.Store = store
			So(client.Put(ctx, rec), ShouldBeNil)

			got, err := client.Get(ctx, "rec-1")
			So(err, ShouldBeNil)
			So(got, ShouldResemble, rec)
		})

		Convey("When putting a duplicate id", func() {
			So(store.Put(ctx, rec), ShouldBeNil)
			So(errors.Is(store.Put(ctx, rec), recstore.ErrDuplicate), ShouldBeTrue)
		})

		Convey("When the confidence is out of range", func() {
			bad := rec
			bad.Confidence = 1.2
			So(errors.Is(store.Put(ctx, bad), model.ErrInvalidConfidence), ShouldBeTrue)
		})

		Convey("When getting a missing recommendation", func() {
			_, err := store.Get(ctx, "missing")
			So(errors.Is(err, recstore.ErrNotFound), ShouldBeTrue)
		})

		Convey("When patching the status", func() {
			So(store.Put(ctx, rec), ShouldBeNil)
			acceptedAt := time.Now().UTC()
			err := store.PatchStatus(ctx, "rec-1", recstore.StatusPatch{
				Status:     types.StatusAccepted,
				AcceptedAt: &acceptedAt,
				AcceptedBy: "op-1",
			})
			So(err, ShouldBeNil)

			got, err := store.Get(ctx, "rec-1")
			So(err, ShouldBeNil)
			So(got.Status, ShouldEqual, types.StatusAccepted)
			So(*got.AcceptedAt, ShouldEqual, acceptedAt)
			So(got.AcceptedBy, ShouldEqual, "op-1")
		})

		Convey("When patching a missing recommendation", func() {
			err := store.PatchStatus(ctx, "missing", recstore.StatusPatch{Status: types.StatusRejected})
			So(errors.Is(err, recstore.ErrNotFound), ShouldBeTrue)
		})
	})
}
