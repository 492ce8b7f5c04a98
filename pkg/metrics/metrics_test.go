package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func gatheredNames(reg *prometheus.Registry) []string {
	families, err := reg.Gather()
	So(err, ShouldBeNil)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	return names
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a custom registry and options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("eval"),
				WithMetricPrefix("x"),
				WithLatencyBuckets([]float64{0.1, 0.5, 1.0}),
				WithPercentageBuckets([]float64{50, 75, 100}),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metrics are registered under the configured names", func() {
				So(manager, ShouldNotBeNil)
				manager.evaluations.WithLabelValues(OutcomeOK).Inc()
				names := gatheredNames(registry)
				So(names, ShouldContain, "test_eval_x_evaluations_total")
				So(manager.refreshInterval, ShouldEqual, 5*time.Second)
				So(manager.latencyBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.percentBuckets, ShouldResemble, []float64{50, 75, 100})
				So(manager.customLabels, ShouldResemble, map[string]string{"env": "test"})
			})
		})

		Convey("When creating two managers on separate registries", func() {
			So(func() {
				NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))
				NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))
			}, ShouldNotPanic)
		})

		Convey("When creating two managers on the same registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the duplicate registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording evaluations", func() {
			before := testutil.ToFloat64(globalManager.evaluations.WithLabelValues(OutcomeOK))
			RecordEvaluation(OutcomeOK)
			RecordEvaluation(OutcomeOK)

			Convey("Then the counter increases", func() {
				after := testutil.ToFloat64(globalManager.evaluations.WithLabelValues(OutcomeOK))
				So(after-before, ShouldEqual, 2.0)
			})
		})

		Convey("When recording subject statuses and sentinels", func() {
			before := testutil.ToFloat64(globalManager.subjectsEvaluated.WithLabelValues("Danger"))
			RecordSubjectStatus("Danger")
			RecordSentinel("unreachable")

			Convey("Then the labelled counters increase", func() {
				So(testutil.ToFloat64(globalManager.subjectsEvaluated.WithLabelValues("Danger"))-before, ShouldEqual, 1.0)
				So(testutil.ToFloat64(globalManager.unreachableOrUnbound.WithLabelValues("unreachable")), ShouldBeGreaterThanOrEqualTo, 1.0)
			})
		})

		Convey("When recording the remaining metrics", func() {
			So(func() {
				RecordValidationError("threshold")
				RecordEvaluationLatency(0.2)
				RecordAggregatePercentage(72.5)
				RecordSubjectsPerRequest(6)
				RecordReportExported("xlsx")
				RecordHTTPRequest("calculate", "POST", "200")
				RecordHTTPRequestDuration("calculate", "POST", "200", 1.5)
				RecordErrorByType("client_error", "medium")
				RecordErrorByEndpoint("calculate", "POST", "client_error")
				RecordErrorLatency("http", "client_error", 0.4)
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.01)
			}, ShouldNotPanic)

			Convey("Then they are exposed on the custom registry", func() {
				names := strings.Join(gatheredNames(GetRegistry()), ",")
				So(names, ShouldContainSubstring, "attendance_evaluator_validation_errors_total")
				So(names, ShouldContainSubstring, "attendance_evaluator_http_requests_total")
				So(names, ShouldContainSubstring, "attendance_evaluator_aggregate_percentage")
			})
		})

		Convey("When metrics are disabled", func() {
			globalManager.enabled = false
			defer func() { globalManager.enabled = true }()
			before := testutil.ToFloat64(globalManager.evaluations.WithLabelValues(OutcomeRejected))
			RecordEvaluation(OutcomeRejected)

			Convey("Then nothing is recorded", func() {
				So(testutil.ToFloat64(globalManager.evaluations.WithLabelValues(OutcomeRejected)), ShouldEqual, before)
			})
		})

		Convey("When asking for the refresh interval", func() {
			So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
		})
	})
}
