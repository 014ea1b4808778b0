package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fsg1/fmms/adapters/clock"
	apihttp "github.com/fsg1/fmms/adapters/http"
	"github.com/fsg1/fmms/adapters/idgen"
	"github.com/fsg1/fmms/adapters/memory"
	"github.com/fsg1/fmms/adapters/metrics"
	"github.com/fsg1/fmms/app"
	"github.com/fsg1/fmms/domain/curriculum"
	"github.com/fsg1/fmms/domain/fault"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

var baseTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

const editJSON = `{
  "code": "JOS", "name": "Java on steroids", "credits": 4,
  "durationWeeks": 4, "elective": true,
  "descriptions": [{"introduction": "Hello", "content": "This course is impossible"}],
  "topics": ["Do some stuff", "And other stuff too"],
  "literatureReferences": [{"type": "BOOK", "description": "This book"}],
  "prerequisiteModuleIds": [1],
  "assessmentComponents": [{"code": "BUKI", "description": "BLablablabla", "weight": 1.0, "minimumGrade": 5.5}],
  "learningGoals": [{"text": "explain major concepts", "weight": 1.0, "mandatory": true}],
  "constituentPartMappings": [{"learningGoal": 1, "assessmentComponent": "BUKI"}]
}`

type testStores struct {
	curricula *memory.CurriculumStore
	modules   *memory.ModuleStore
	metrics   *metrics.Collector
}

func record(semester int, code string) curriculum.FlatModuleRecord {
	return curriculum.FlatModuleRecord{
		{Name: "study_programme", Value: "HBO-ICT"},
		{Name: "name", Value: "HBO-ICT"},
		{Name: "semester", Value: semester},
		{Name: "code", Value: code},
		{Name: "credits", Value: 4},
	}
}

type failingChecker struct{ err error }

func (f failingChecker) HealthCheck(context.Context) error { return f.err }

func setupRouter(t *testing.T, health apihttp.HealthChecker) (chi.Router, testStores) {
	t.Helper()

	curricula := memory.NewCurriculumStore()
	curricula.AddProgramme(curriculum.StudyProgramme{ID: 1, Code: "HBO-ICT", Name: "HBO-ICT"})
	curricula.AddProgramme(curriculum.StudyProgramme{ID: 2, Code: "CMD", Name: "Communication & Multimedia Design"})
	curricula.AddRecords(1, record(1, "WEB"), record(2, "OOP"), record(1, "DBS"))
	curricula.Schedule(1, "WEB", curriculum.Placement{ModuleID: 1, Semester: 1})

	modules := memory.NewModuleStore()
	modules.AddModule(1, "WEB", "Web development")
	modules.AddModule(9, "OLD", "Old name")

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	logger := zerolog.Nop()

	api := apihttp.NewAPIHandler(
		app.NewCurriculumService(curricula, modules, m, logger),
		app.NewRevisionService(app.RevisionDeps{
			Store:   modules,
			Clock:   clock.NewTicking(baseTime, time.Millisecond),
			IDGen:   idgen.NewSequential("rev-"),
			Metrics: m,
			Logger:  logger,
		}),
		logger,
	)

	r := apihttp.NewRouter(api, apihttp.NewHealthHandler(health), logger, apihttp.RouterConfig{
		BasePath:       "/fmms",
		RequestTimeout: 5 * time.Second,
		Metrics:        m,
		EnableOpenAPI:  true,
		IDGen:          idgen.NewSequential("req-"),
	})
	return r, testStores{curricula: curricula, modules: modules, metrics: m}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body apihttp.ErrorResponseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error.Code
}

// -----------------------------------------------------------------------------
// Curriculum endpoints
// -----------------------------------------------------------------------------

func TestListCurricula(t *testing.T) {
	r, _ := setupRouter(t, nil)

	rec := do(t, r, "GET", "/fmms/curricula", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp apihttp.CurriculaResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Curricula) != 2 || resp.Curricula[0].Code != "CMD" {
		t.Errorf("curricula = %+v", resp.Curricula)
	}
}

func TestSemesters(t *testing.T) {
	r, _ := setupRouter(t, nil)

	rec := do(t, r, "GET", "/fmms/curriculum/1/semesters", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	want := `{"semesters":[` +
		`{"semester":1,"modules":[{"code":"WEB","credits":4},{"code":"DBS","credits":4}]},` +
		`{"semester":2,"modules":[{"code":"OOP","credits":4}]}]}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestSemesters_EmptyProgramme(t *testing.T) {
	r, _ := setupRouter(t, nil)

	rec := do(t, r, "GET", "/fmms/curriculum/2/semesters", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"semesters":[]}` {
		t.Errorf("body = %s, want {\"semesters\":[]}", got)
	}
}

func TestSemesters_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		code   string
		setup  func(s testStores)
	}{
		{name: "unknown programme", path: "/fmms/curriculum/99/semesters", status: 404, code: "not_found"},
		{name: "non-numeric id", path: "/fmms/curriculum/abc/semesters", status: 400, code: "validation_failed"},
		{name: "zero id", path: "/fmms/curriculum/0/semesters", status: 400, code: "validation_failed"},
		{name: "unknown semester", path: "/fmms/curriculum/1/semester/7", status: 404, code: "not_found"},
		{name: "non-numeric semester", path: "/fmms/curriculum/1/semester/x", status: 400, code: "validation_failed"},
		{
			name: "invalid semester value", path: "/fmms/curriculum/1/semesters", status: 400, code: "validation_failed",
			setup: func(s testStores) {
				s.curricula.AddRecords(1, curriculum.FlatModuleRecord{{Name: "semester", Value: "two"}})
			},
		},
		{
			name: "store down", path: "/fmms/curriculum/1/semesters", status: 503, code: "store_unavailable",
			setup: func(s testStores) { s.curricula.Fail(fault.MarkUnavailable(errors.New("database is locked"))) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, stores := setupRouter(t, nil)
			if tt.setup != nil {
				tt.setup(stores)
			}
			rec := do(t, r, "GET", tt.path, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if code := errorCode(t, rec); code != tt.code {
				t.Errorf("code = %q, want %q", code, tt.code)
			}
		})
	}
}

func TestSemester(t *testing.T) {
	r, _ := setupRouter(t, nil)

	rec := do(t, r, "GET", "/fmms/curriculum/1/semester/2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	want := `{"semester":2,"modules":[{"code":"OOP","credits":4}]}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestCurriculumModule(t *testing.T) {
	r, _ := setupRouter(t, nil)

	rec := do(t, r, "GET", "/fmms/curriculum/1/module/WEB", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["id"] != float64(1) || got["semester"] != float64(1) || got["studyProgrammeId"] != float64(1) {
		t.Errorf("placement = %v", got)
	}
	if got["code"] != "WEB" || got["name"] != "Web development" {
		t.Errorf("module = %v", got)
	}
}

func TestCurriculumModule_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		setup  func(s testStores)
		status int
		code   string
	}{
		{name: "unknown code", path: "/fmms/curriculum/1/module/BUA1", status: 404, code: "not_found"},
		{name: "other programme", path: "/fmms/curriculum/2/module/WEB", status: 404, code: "not_found"},
		{name: "unknown programme", path: "/fmms/curriculum/99/module/WEB", status: 404, code: "not_found"},
		{name: "bad programme id", path: "/fmms/curriculum/x/module/WEB", status: 400, code: "validation_failed"},
		{
			name: "store down", path: "/fmms/curriculum/1/module/WEB", status: 503, code: "store_unavailable",
			setup: func(s testStores) { s.curricula.Fail(fault.MarkUnavailable(errors.New("connection refused"))) },
		},
		{
			name: "store error", path: "/fmms/curriculum/1/module/WEB", status: 500, code: "internal_error",
			setup: func(s testStores) { s.curricula.Fail(errors.New("syntax error at or near SELECT")) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, stores := setupRouter(t, nil)
			if tt.setup != nil {
				tt.setup(stores)
			}
			rec := do(t, r, "GET", tt.path, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if code := errorCode(t, rec); code != tt.code {
				t.Errorf("code = %q, want %q", code, tt.code)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Module endpoints
// -----------------------------------------------------------------------------

func TestPostModule_ThenGet(t *testing.T) {
	r, stores := setupRouter(t, nil)

	rec := do(t, r, "POST", "/fmms/module/9", editJSON)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", rec.Code, rec.Body.String())
	}
	if id := rec.Header().Get("X-Revision-Id"); id != "rev-1" {
		t.Errorf("X-Revision-Id = %q, want rev-1", id)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}

	rec = do(t, r, "GET", "/fmms/module/9", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rec.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["code"] != "JOS" || got["credits"] != float64(4) {
		t.Errorf("document = %v", got)
	}
	if topics, _ := got["topics"].([]any); len(topics) != 2 {
		t.Errorf("topics = %v, want 2", got["topics"])
	}

	// Posting the stored document back changes nothing.
	before := stores.modules.Rows("module_topic", 9)
	if res := do(t, r, "POST", "/fmms/module/9", rec.Body.String()); res.Code != http.StatusNoContent {
		t.Fatalf("round trip status = %d: %s", res.Code, res.Body.String())
	}
	after := stores.modules.Rows("module_topic", 9)
	if len(before) != len(after) {
		t.Errorf("topic rows changed from %d to %d", len(before), len(after))
	}

	if v := testutil.ToFloat64(stores.metrics.Revisions.WithLabelValues("committed")); v != 2 {
		t.Errorf("committed revisions = %v, want 2", v)
	}
}

func TestPostModule_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		setup  func(s testStores)
		status int
		code   string
	}{
		{name: "empty body", path: "/fmms/module/9", body: "", status: 400, code: "validation_failed"},
		{name: "whitespace body", path: "/fmms/module/9", body: "  \n", status: 400, code: "validation_failed"},
		{name: "malformed JSON", path: "/fmms/module/9", body: `{"code":`, status: 400, code: "validation_failed"},
		{name: "missing credits", path: "/fmms/module/9", body: `{"code":"JOS","name":"Java"}`, status: 400, code: "validation_failed"},
		{
			name: "mapping to unknown component", path: "/fmms/module/9", status: 400, code: "validation_failed",
			body: `{"code":"JOS","name":"Java","credits":4,
				"learningGoals":[{"text":"g","weight":1}],
				"constituentPartMappings":[{"learningGoal":1,"assessmentComponent":"NOPE"}]}`,
		},
		{name: "bad id", path: "/fmms/module/x", body: editJSON, status: 400, code: "validation_failed"},
		{name: "unknown module", path: "/fmms/module/5", body: editJSON, status: 404, code: "not_found"},
		{
			name: "unknown prerequisite", path: "/fmms/module/9", status: 409, code: "constraint_violation",
			body: strings.Replace(editJSON, `"prerequisiteModuleIds": [1]`, `"prerequisiteModuleIds": [77]`, 1),
		},
		{
			name: "store down", path: "/fmms/module/9", body: editJSON, status: 503, code: "store_unavailable",
			setup: func(s testStores) { s.modules.FailBegin(fault.MarkUnavailable(errors.New("connection refused"))) },
		},
		{
			name: "commit fails", path: "/fmms/module/9", body: editJSON, status: 500, code: "transaction_failed",
			setup: func(s testStores) { s.modules.FailCommit(errors.New("disk quota exceeded")) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, stores := setupRouter(t, nil)
			if tt.setup != nil {
				tt.setup(stores)
			}
			rec := do(t, r, "POST", tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if code := errorCode(t, rec); code != tt.code {
				t.Errorf("code = %q, want %q", code, tt.code)
			}
			if stores.modules.Commits() != 0 {
				t.Errorf("commits = %d, want 0", stores.modules.Commits())
			}
		})
	}
}

func TestPostModule_ServerErrorHidesDetail(t *testing.T) {
	r, stores := setupRouter(t, nil)
	stores.modules.FailCommit(errors.New("disk quota exceeded"))

	rec := do(t, r, "POST", "/fmms/module/9", editJSON)
	if strings.Contains(rec.Body.String(), "quota") {
		t.Errorf("body leaks store error: %s", rec.Body.String())
	}
}

func TestGetModule_NotFound(t *testing.T) {
	r, _ := setupRouter(t, nil)

	rec := do(t, r, "GET", "/fmms/module/404", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// -----------------------------------------------------------------------------
// Router plumbing
// -----------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	r, _ := setupRouter(t, nil)
	if rec := do(t, r, "GET", "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("/health status = %d", rec.Code)
	}
	if rec := do(t, r, "GET", "/health/ready", ""); rec.Code != http.StatusOK {
		t.Errorf("/health/ready status = %d", rec.Code)
	}

	down, _ := setupRouter(t, failingChecker{errors.New("database is locked")})
	rec := do(t, down, "GET", "/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/health/ready status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unhealthy") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRequestID(t *testing.T) {
	r, _ := setupRouter(t, nil)

	rec := do(t, r, "GET", "/fmms/curricula", "")
	if id := rec.Header().Get("X-Request-Id"); id != "req-1" {
		t.Errorf("X-Request-Id = %q, want req-1", id)
	}

	req := httptest.NewRequest("GET", "/fmms/curricula", nil)
	req.Header.Set("X-Request-Id", "caller-42")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if id := rec.Header().Get("X-Request-Id"); id != "caller-42" {
		t.Errorf("X-Request-Id = %q, want caller-42", id)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	r, stores := setupRouter(t, nil)

	do(t, r, "GET", "/fmms/curriculum/1/semesters", "")
	do(t, r, "GET", "/fmms/curriculum/99/semesters", "")
	do(t, r, "GET", "/health", "")

	path := "/fmms/curriculum/:id/semesters"
	if v := testutil.ToFloat64(stores.metrics.RequestsTotal.WithLabelValues("GET", path, "2xx")); v != 1 {
		t.Errorf("2xx requests = %v, want 1", v)
	}
	if v := testutil.ToFloat64(stores.metrics.RequestsTotal.WithLabelValues("GET", path, "4xx")); v != 1 {
		t.Errorf("4xx requests = %v, want 1", v)
	}
	if v := testutil.ToFloat64(stores.metrics.RequestsInFlight); v != 0 {
		t.Errorf("in flight = %v, want 0", v)
	}
}

func TestSwaggerDoc(t *testing.T) {
	r, _ := setupRouter(t, nil)

	rec := do(t, r, "GET", "/swagger/doc.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("doc.json is not JSON: %v", err)
	}
	paths, _ := doc["paths"].(map[string]any)
	for _, p := range []string{"/curricula", "/curriculum/{id}/semesters", "/module/{id}"} {
		if _, ok := paths[p]; !ok {
			t.Errorf("doc.json misses path %s", p)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	r, _ := setupRouter(t, nil)

	rec := do(t, r, "GET", "/fmms/nothing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if code := errorCode(t, rec); code != "not_found" {
		t.Errorf("code = %q", code)
	}

	rec = do(t, r, "DELETE", "/fmms/module/9", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestRouter_RootBasePath(t *testing.T) {
	curricula := memory.NewCurriculumStore()
	curricula.AddProgramme(curriculum.StudyProgramme{ID: 1, Code: "HBO-ICT", Name: "HBO-ICT"})
	logger := zerolog.Nop()

	modules := memory.NewModuleStore()
	api := apihttp.NewAPIHandler(
		app.NewCurriculumService(curricula, modules, nil, logger),
		app.NewRevisionService(app.RevisionDeps{
			Store:  modules,
			Clock:  clock.NewFake(baseTime),
			IDGen:  idgen.NewSequential("rev-"),
			Logger: logger,
		}),
		logger,
	)
	r := apihttp.NewRouter(api, apihttp.NewHealthHandler(nil), logger, apihttp.RouterConfig{BasePath: "/"})

	if rec := do(t, r, "GET", "/curriculum/1/semesters", ""); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}
