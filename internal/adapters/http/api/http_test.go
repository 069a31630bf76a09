package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/northlux/securelab/internal/adapters/http/api"
	service "github.com/northlux/securelab/internal/app"
	"github.com/northlux/securelab/internal/auth"
	"github.com/northlux/securelab/internal/domain/model"
	"github.com/northlux/securelab/internal/domain/ratelimit"
	"github.com/northlux/securelab/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakeDeps is a scriptable Dependencies implementation.
type fakeDeps struct {
	importSummary *model.ImportSummary
	importErr     error
	report        model.ValidationReport
	actors        map[string]*auth.Actor
	decision      ratelimit.Decision

	lastLimitKey string
	importedCtx  context.Context
}

func (f *fakeDeps) Import(ctx context.Context, _ []byte) (*model.ImportSummary, error) {
	f.importedCtx = ctx
	if auth.FromContext(ctx) == nil {
		return nil, service.ErrSessionExpired
	}
	return f.importSummary, f.importErr
}

func (f *fakeDeps) Preview(_ context.Context, _ []byte) model.ValidationReport {
	return f.report
}

func (f *fakeDeps) ResolveActor(_ context.Context, token string) (*auth.Actor, error) {
	return f.actors[token], nil
}

func (f *fakeDeps) CheckLimit(_ context.Context, key string, _ int, _ time.Duration) ratelimit.Decision {
	f.lastLimitKey = key
	return f.decision
}

type fakeStats struct{}

func (fakeStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestServer(deps *fakeDeps) *httptest.Server {
	r := chi.NewRouter()
	srv := api.NewServer(deps, fakeStats{}, api.LimitConfig{Max: 60, Window: time.Minute})
	srv.Register(context.Background(), r)
	return httptest.NewServer(r)
}

func allowAll() ratelimit.Decision {
	return ratelimit.Decision{Allowed: true, Remaining: 59, ResetSeconds: 60}
}

func post(t *testing.T, url, token string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func TestImportEndpoint(t *testing.T) {
	Convey("Given an API server with a known token", t, func() {
		deps := &fakeDeps{
			importSummary: &model.ImportSummary{Imported: 2, Skipped: 1, Errors: []string{}},
			actors:        map[string]*auth.Actor{"secret": {ID: "alice", Name: "alice"}},
			decision:      allowAll(),
		}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When an authenticated import succeeds", func() {
			resp := post(t, ts.URL+"/api/v1/signals/import", "secret", []byte(`{"signals":[{}]}`))
			defer resp.Body.Close()

			Convey("Then the summary comes back with 200", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(resp.Header.Get("X-RateLimit-Remaining"), ShouldEqual, "59")

				var summary model.ImportSummary
				So(json.NewDecoder(resp.Body).Decode(&summary), ShouldBeNil)
				So(summary.Imported, ShouldEqual, 2)
				So(summary.Skipped, ShouldEqual, 1)
			})

			Convey("And the limiter was keyed by operation and actor", func() {
				So(deps.lastLimitKey, ShouldEqual, "import:alice")
			})
		})

		Convey("When the batch fails validation", func() {
			deps.importErr = &service.ValidationError{
				Fields: []string{"signals[0].title: must be between 10 and 500 characters"},
			}
			resp := post(t, ts.URL+"/api/v1/signals/import", "secret", []byte(`{"signals":[{}]}`))
			defer resp.Body.Close()

			Convey("Then a 400 names every offending field", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)

				var body struct {
					Code   string   `json:"code"`
					Errors []string `json:"errors"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body.Code, ShouldEqual, "validation_failed")
				So(body.Errors, ShouldHaveLength, 1)
				So(body.Errors[0], ShouldContainSubstring, "signals[0].title")
			})
		})

		Convey("When the token is unknown", func() {
			resp := post(t, ts.URL+"/api/v1/signals/import", "wrong", []byte(`{"signals":[{}]}`))
			defer resp.Body.Close()

			Convey("Then the import is rejected as an expired session", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)

				var body struct {
					Code string `json:"code"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body.Code, ShouldEqual, "session_expired")
			})
		})

		Convey("When the rate limit is exhausted", func() {
			deps.decision = ratelimit.Decision{Allowed: false, Remaining: 0, ResetSeconds: 42}
			resp := post(t, ts.URL+"/api/v1/signals/import", "secret", []byte(`{"signals":[{}]}`))
			defer resp.Body.Close()

			Convey("Then the request is refused with retry guidance", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusTooManyRequests)
				So(resp.Header.Get("Retry-After"), ShouldEqual, "42")
				So(resp.Header.Get("X-RateLimit-Remaining"), ShouldEqual, "0")

				var body struct {
					Code string `json:"code"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body.Code, ShouldEqual, "rate_limited")
			})
		})
	})
}

func TestValidateEndpoint(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &fakeDeps{
			report:   model.ValidationReport{Valid: true, Count: 3, Errors: []string{}},
			actors:   map[string]*auth.Actor{"secret": {ID: "alice"}},
			decision: allowAll(),
		}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When a batch is validated", func() {
			resp := post(t, ts.URL+"/api/v1/signals/validate", "secret", []byte(`{"signals":[{},{},{}]}`))
			defer resp.Body.Close()

			Convey("Then the report is returned without side effects", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var report model.ValidationReport
				So(json.NewDecoder(resp.Body).Decode(&report), ShouldBeNil)
				So(report.Valid, ShouldBeTrue)
				So(report.Count, ShouldEqual, 3)
			})
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &fakeDeps{decision: allowAll()}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("The health endpoint needs no token", func() {
			resp, err := http.Get(ts.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var body map[string]string
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
			So(body["status"], ShouldEqual, "ok")
		})

		Convey("Anonymous stats requests share one limiter bucket", func() {
			resp, err := http.Get(ts.URL + "/api/v1/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.lastLimitKey, ShouldEqual, "stats:anonymous")
		})
	})
}
