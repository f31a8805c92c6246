package logger_test

import (
	"context"
	"testing"

	"github.com/okian/kaliber/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("Then Get returns a usable logger", func() {
			l := logger.Get()
			So(l, ShouldNotBeNil)
			// Must not panic.
			l.Info(context.Background(), "hello", logger.String("k", "v"), logger.Int("n", 1))
		})

		Convey("And Named returns a scoped logger", func() {
			So(logger.Named("component"), ShouldNotBeNil)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given the level parser", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("Then known levels parse", func() {
			for _, lvl := range []string{"debug", "info", "warn", "warning", "error", "", "  INFO "} {
				So(logger.SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("And unknown levels are rejected", func() {
			So(logger.SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}
