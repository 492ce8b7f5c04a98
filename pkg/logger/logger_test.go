package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat("json"), WithWriter(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Info(ctx, "evaluated", String("request_id", "r-1"), Int("subjects", 3), Bool("danger", true))

			Convey("Then the fields and source are encoded", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "evaluated")
				So(rec["request_id"], ShouldEqual, "r-1")
				So(rec["subjects"], ShouldEqual, float64(3))
				So(rec["danger"], ShouldEqual, true)
				So(rec["source"], ShouldContainSubstring, "logger_test.go:")
			})
		})

		Convey("When logging through With", func() {
			Get().With(String("request_id", "r-2")).Warn(ctx, "rejected")

			Convey("Then the bound field is present", func() {
				So(buf.String(), ShouldContainSubstring, `"request_id":"r-2"`)
				So(buf.String(), ShouldContainSubstring, `"level":"WARN"`)
			})
		})

		Convey("When the level filters the message", func() {
			So(SetLevelString("error"), ShouldBeNil)
			defer func() { _ = SetLevelString("info") }()
			Get().Debug(ctx, "hidden")
			Get().Info(ctx, "hidden")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a text logger", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf)), ShouldBeNil)

		Named("api").Info(context.Background(), "hello", String("k", "v"))

		Convey("Then the group prefixes the fields", func() {
			So(strings.Contains(buf.String(), "api.k=v"), ShouldBeTrue)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(Init(), ShouldBeNil)
		for _, lvl := range []string{"debug", "INFO", "warn", "warning", "error", ""} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
		_ = SetLevelString("info")
	})
}
