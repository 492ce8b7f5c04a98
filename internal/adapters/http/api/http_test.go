package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/okian/attendance/internal/adapters/http/api"
	"github.com/okian/attendance/internal/adapters/report"
	service "github.com/okian/attendance/internal/app"
	"github.com/okian/attendance/internal/domain/attendance"
	"github.com/okian/attendance/internal/domain/types"
)

type failingDeps struct {
	err error
}

func (f failingDeps) Calculate(context.Context, types.CalculateInput) (attendance.Evaluation, error) {
	return attendance.Evaluation{}, f.err
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps api.Dependencies, opts ...api.ServerOption) *http.ServeMux {
	stats := &mockStatsProvider{stats: map[string]interface{}{"evaluations": 7}}
	mux := http.NewServeMux()
	api.NewServer(deps, stats, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var out map[string]string
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestCalculate(t *testing.T) {
	Convey("Given a server backed by the attendance service", t, func() {
		svc := service.New(service.WithMaxSubjects(3))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc)

		Convey("When posting a valid request", func() {
			body := `{"subjects":[{"subject":"Math","total":20,"present":14},{"subject":"Physics","total":20,"present":18}],"threshold":75}`
			w := do(mux, http.MethodPost, "/api/calculate", body)

			Convey("Then the evaluation is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")

				var ev attendance.Evaluation
				So(json.Unmarshal(w.Body.Bytes(), &ev), ShouldBeNil)
				So(ev.Threshold, ShouldEqual, 75)
				So(ev.Subjects, ShouldHaveLength, 2)

				math := ev.Subjects[0]
				So(math.Name, ShouldEqual, "Math")
				So(math.Percentage, ShouldEqual, 70.0)
				So(math.Status, ShouldEqual, attendance.StatusDanger)
				So(math.ClassesNeeded, ShouldNotBeNil)
				So(math.ClassesNeeded.N, ShouldEqual, 4)
				So(math.CanSkip, ShouldBeNil)

				physics := ev.Subjects[1]
				So(physics.Percentage, ShouldEqual, 90.0)
				So(physics.Status, ShouldEqual, attendance.StatusSafe)
				So(physics.CanSkip.N, ShouldEqual, 4)

				So(ev.Aggregate.TotalPresent, ShouldEqual, 32)
				So(ev.Aggregate.TotalLectures, ShouldEqual, 40)
				So(ev.Aggregate.Percentage, ShouldEqual, 80.0)
				So(ev.Aggregate.Status, ShouldEqual, attendance.StatusSafe)
			})

			Convey("Then a request ID is assigned", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldNotBeBlank)
			})
		})

		Convey("When the threshold is omitted", func() {
			w := do(mux, http.MethodPost, "/api/calculate", `{"subjects":[{"subject":"Art","total":4,"present":3}]}`)

			Convey("Then the default threshold applies", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var ev attendance.Evaluation
				So(json.Unmarshal(w.Body.Bytes(), &ev), ShouldBeNil)
				So(ev.Threshold, ShouldEqual, 75)
				So(ev.Subjects[0].Status, ShouldEqual, attendance.StatusSafe)
				So(ev.Subjects[0].CanSkip.N, ShouldEqual, 0)
			})
		})

		Convey("When threshold 0 makes skipping unbounded", func() {
			w := do(mux, http.MethodPost, "/api/calculate", `{"subjects":[{"subject":"Art","total":4,"present":3}],"threshold":0}`)

			Convey("Then the count is encoded as a string", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"can_skip":"unbounded"`)
			})
		})

		Convey("When the caller supplies a request ID", func() {
			r := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader(`{"subjects":[]}`))
			r.Header.Set(api.RequestIDHeader, "req-42")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, r)

			Convey("Then it is echoed back", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "req-42")
			})
		})

		Convey("When the request is invalid", func() {
			cases := []struct {
				name string
				body string
				code string
			}{
				{"malformed JSON", `{"subjects":`, "bad_request"},
				{"unknown field", `{"subjects":[],"extra":1}`, "bad_request"},
				{"missing subjects", `{"threshold":75}`, "bad_request"},
				{"blank subject", `{"subjects":[{"subject":"  ","total":1,"present":1}]}`, "bad_request"},
				{"missing total", `{"subjects":[{"subject":"A","present":1}]}`, "bad_request"},
				{"missing present", `{"subjects":[{"subject":"A","total":1}]}`, "bad_request"},
				{"empty list", `{"subjects":[]}`, "bad_request"},
				{"present above total", `{"subjects":[{"subject":"A","total":1,"present":2}]}`, "bad_request"},
				{"negative total", `{"subjects":[{"subject":"A","total":-1,"present":0}]}`, "bad_request"},
				{"total above lecture limit", `{"subjects":[{"subject":"A","total":1000000000000000,"present":1000000000000000}]}`, "bad_request"},
				{"total beyond int64", `{"subjects":[{"subject":"A","total":99999999999999999999,"present":1}]}`, "bad_request"},
				{"threshold above 100", `{"subjects":[{"subject":"A","total":1,"present":1}],"threshold":101}`, "bad_request"},
				{"threshold below 0", `{"subjects":[{"subject":"A","total":1,"present":1}],"threshold":-1}`, "bad_request"},
				{"trailing data", `{"subjects":[{"subject":"A","total":1,"present":1}]} {}`, "bad_request"},
				{"too many subjects", `{"subjects":[{"subject":"A","total":1,"present":1},{"subject":"B","total":1,"present":1},{"subject":"C","total":1,"present":1},{"subject":"D","total":1,"present":1}]}`, "too_many_subjects"},
			}
			for _, tc := range cases {
				w := do(mux, http.MethodPost, "/api/calculate", tc.body)
				Convey("Then "+tc.name+" is a client error", func() {
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					body := decodeError(w)
					So(body["code"], ShouldEqual, tc.code)
					So(body["message"], ShouldNotBeBlank)
				})
			}
		})

		Convey("When the method is not POST", func() {
			w := do(mux, http.MethodGet, "/api/calculate", "")

			Convey("Then 405 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldEqual, http.MethodPost)
				So(decodeError(w)["code"], ShouldEqual, "method_not_allowed")
			})
		})

		Convey("When the body exceeds the limit", func() {
			small := newMux(svc, api.WithMaxBodyBytes(32))
			body := `{"subjects":[{"subject":"` + strings.Repeat("x", 64) + `","total":1,"present":1}]}`
			w := do(small, http.MethodPost, "/api/calculate", body)

			Convey("Then 413 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(decodeError(w)["code"], ShouldEqual, "body_too_large")
			})
		})
	})

	Convey("Given dependencies that fail unexpectedly", t, func() {
		mux := newMux(failingDeps{err: errors.New("boom")})
		w := do(mux, http.MethodPost, "/api/calculate", `{"subjects":[{"subject":"A","total":1,"present":1}]}`)

		Convey("Then the cause is not leaked", func() {
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			body := decodeError(w)
			So(body["code"], ShouldEqual, "internal_error")
			So(body["message"], ShouldNotContainSubstring, "boom")
		})
	})
}

func TestExport(t *testing.T) {
	Convey("Given a server backed by the attendance service", t, func() {
		mux := newMux(service.New())

		Convey("When exporting a valid request", func() {
			w := do(mux, http.MethodPost, "/api/export", `{"subjects":[{"subject":"Math","total":20,"present":14}],"threshold":75}`)

			Convey("Then a workbook attachment is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, report.ContentTypeXLSX)
				So(w.Header().Get("Content-Disposition"), ShouldStartWith, "attachment; filename=")

				f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
				So(err, ShouldBeNil)
				defer func() { _ = f.Close() }()
				rows, err := f.GetRows(report.SheetName)
				So(err, ShouldBeNil)
				So(rows[0], ShouldResemble, report.Header)
				So(rows[1][0], ShouldEqual, "Math")
			})
		})

		Convey("When exporting an invalid request", func() {
			w := do(mux, http.MethodPost, "/api/export", `{"subjects":[]}`)

			Convey("Then 400 is returned as JSON", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			})
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given a registered server", t, func() {
		mux := newMux(service.New())

		Convey("Then /api/health reports healthy", func() {
			w := do(mux, http.MethodGet, "/api/health", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeError(w)["status"], ShouldEqual, "healthy")
		})

		Convey("Then /healthz serves Prometheus metrics", func() {
			do(mux, http.MethodGet, "/api/health", "")
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "attendance_")
		})

		Convey("Then /stats returns the provider counters", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["evaluations"], ShouldEqual, 7.0)
			So(w.Header().Get("Cache-Control"), ShouldEqual, "no-store")
		})

		Convey("Then /stats rejects other methods", func() {
			w := do(mux, http.MethodPost, "/stats", "{}")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, http.MethodGet)
		})
	})
}

func TestCORS(t *testing.T) {
	Convey("Given a server with a configured origin", t, func() {
		mux := newMux(service.New(), api.WithCORSOrigin("https://example.edu"))

		Convey("When a preflight request arrives", func() {
			w := do(mux, http.MethodOptions, "/api/calculate", "")

			Convey("Then it is answered without a body", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://example.edu")
				So(w.Header().Get("Access-Control-Allow-Methods"), ShouldContainSubstring, "POST")
				So(w.Body.Len(), ShouldEqual, 0)
			})
		})

		Convey("When a regular request arrives", func() {
			w := do(mux, http.MethodGet, "/api/health", "")

			Convey("Then the origin header is set", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://example.edu")
			})
		})
	})

	Convey("Given a server with CORS disabled", t, func() {
		mux := newMux(service.New(), api.WithCORSOrigin(""))
		w := do(mux, http.MethodGet, "/api/health", "")

		So(w.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
	})
}

func TestRegisterNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		server := api.NewServer(service.New(), &mockStatsProvider{})

		So(func() { server.Register(context.Background(), nil) }, ShouldPanic)
	})
}
