package service_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/attendance/internal/app"
	"github.com/okian/attendance/internal/domain/attendance"
	"github.com/okian/attendance/internal/domain/types"
	"github.com/okian/attendance/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init(logger.WithWriter(io.Discard))
	if err != nil {
		panic(err)
	}
}

func threshold(n int) *int { return &n }

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.DefaultThreshold(), ShouldEqual, 75)
			So(svc.GetStats()["maxSubjects"], ShouldEqual, 200)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithDefaultThreshold(60),
			service.WithMaxSubjects(10),
			service.WithLogger(logger.Named("test")),
		)

		Convey("Then the options are applied", func() {
			So(svc.DefaultThreshold(), ShouldEqual, 60)
			So(svc.GetStats()["maxSubjects"], ShouldEqual, 10)
		})
	})

	Convey("Given out-of-range options", t, func() {
		svc := service.New(service.WithDefaultThreshold(101), service.WithMaxSubjects(0))

		Convey("Then the defaults are kept", func() {
			So(svc.DefaultThreshold(), ShouldEqual, 75)
			So(svc.GetStats()["maxSubjects"], ShouldEqual, 200)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats, ShouldContainKey, "uptimeSeconds")
			})

			Convey("And starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldBeFalse)
				So(stats, ShouldNotContainKey, "uptimeSeconds")
			})

			Convey("And stopping again is safe", func() {
				So(svc.Stop, ShouldNotPanic)
			})
		})
	})
}

func TestService_Calculate(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New(service.WithMaxSubjects(2))
		ctx := context.Background()

		Convey("When evaluating with an explicit threshold", func() {
			ev, err := svc.Calculate(ctx, types.CalculateInput{
				Subjects:  []attendance.SubjectRecord{{Name: "Math", Total: 20, Present: 14}},
				Threshold: threshold(75),
			})

			Convey("Then the core result is returned", func() {
				So(err, ShouldBeNil)
				So(ev.Threshold, ShouldEqual, 75)
				So(ev.Subjects[0].Status, ShouldEqual, attendance.StatusDanger)
				So(*ev.Subjects[0].ClassesNeeded, ShouldResemble, attendance.Exactly(4))
			})
		})

		Convey("When the threshold is omitted", func() {
			custom := service.New(service.WithDefaultThreshold(50))
			ev, err := custom.Calculate(ctx, types.CalculateInput{
				Subjects: []attendance.SubjectRecord{{Name: "Math", Total: 20, Present: 10}},
			})

			Convey("Then the service default applies", func() {
				So(err, ShouldBeNil)
				So(ev.Threshold, ShouldEqual, 50)
				So(ev.Subjects[0].Status, ShouldEqual, attendance.StatusSafe)
			})
		})

		Convey("When the input is invalid", func() {
			_, err := svc.Calculate(ctx, types.CalculateInput{
				Subjects: []attendance.SubjectRecord{{Name: "Math", Total: 1, Present: 2}},
			})

			Convey("Then the validation error is returned unchanged", func() {
				So(errors.Is(err, attendance.ErrInvalidInput), ShouldBeTrue)
				var verr *attendance.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Field, ShouldEqual, "present")
			})
		})

		Convey("When there are too many subjects", func() {
			_, err := svc.Calculate(ctx, types.CalculateInput{
				Subjects: []attendance.SubjectRecord{
					{Name: "A", Total: 1, Present: 1},
					{Name: "B", Total: 1, Present: 1},
					{Name: "C", Total: 1, Present: 1},
				},
			})

			Convey("Then ErrTooManySubjects is returned", func() {
				So(errors.Is(err, types.ErrTooManySubjects), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "3 exceeds the limit of 2")
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a service that evaluated some requests", t, func() {
		svc := service.New()
		ctx := context.Background()

		_, err := svc.Calculate(ctx, types.CalculateInput{
			Subjects: []attendance.SubjectRecord{
				{Name: "Math", Total: 20, Present: 14},
				{Name: "Physics", Total: 20, Present: 18},
			},
			Threshold: threshold(75),
		})
		So(err, ShouldBeNil)
		_, err = svc.Calculate(ctx, types.CalculateInput{
			Subjects:  []attendance.SubjectRecord{{Name: "Art", Total: 10, Present: 1}},
			Threshold: threshold(75),
		})
		So(err, ShouldBeNil)
		_, err = svc.Calculate(ctx, types.CalculateInput{Threshold: threshold(75)})
		So(err, ShouldNotBeNil)

		Convey("Then the counters reflect the outcomes", func() {
			stats := svc.GetStats()
			So(stats["evaluations"], ShouldEqual, int64(2))
			So(stats["rejected"], ShouldEqual, int64(1))
			So(stats["subjectsSeen"], ShouldEqual, int64(3))
			So(stats["dangerSubjects"], ShouldEqual, int64(2))
			So(stats["safeSubjects"], ShouldEqual, int64(1))
			So(stats["dangerAggregates"], ShouldEqual, int64(1))
		})
	})
}
