// Package http provides the JSON-over-HTTP surface of the service.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fsg1/fmms/adapters/metrics"
	"github.com/fsg1/fmms/app"
	"github.com/fsg1/fmms/domain/curriculum"
	"github.com/fsg1/fmms/domain/fault"
	"github.com/fsg1/fmms/domain/revision"
	"github.com/fsg1/fmms/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fsg1/fmms/docs/swagger" // registers the OpenAPI document
)

// maxBodyBytes bounds a module edit document.
const maxBodyBytes = 1 << 20

// ErrorResponseBody is the JSON error envelope.
type ErrorResponseBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// VersionResponse is returned by /version.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// CurriculaResponse lists the study programmes.
type CurriculaResponse struct {
	Curricula []curriculum.StudyProgramme `json:"curricula"`
}

// APIHandler serves the curriculum and module endpoints.
type APIHandler struct {
	curricula *app.CurriculumService
	revisions *app.RevisionService
	logger    zerolog.Logger
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(curricula *app.CurriculumService, revisions *app.RevisionService, logger zerolog.Logger) *APIHandler {
	return &APIHandler{
		curricula: curricula,
		revisions: revisions,
		logger:    logger,
	}
}

// ListCurricula returns every study programme.
//
//	@Summary	List study programmes
//	@Tags		Curriculum
//	@Produce	json
//	@Success	200	{object}	CurriculaResponse
//	@Router		/curricula [get]
func (h *APIHandler) ListCurricula(w http.ResponseWriter, r *http.Request) {
	list, err := h.curricula.ListCurricula(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []curriculum.StudyProgramme{}
	}
	writeJSON(w, http.StatusOK, CurriculaResponse{Curricula: list})
}

// Semesters returns the aggregated semester tree of a study programme.
//
//	@Summary	Semesters of a curriculum
//	@Tags		Curriculum
//	@Produce	json
//	@Param		id	path		int	true	"Study programme ID"
//	@Success	200	{object}	curriculum.Tree
//	@Failure	404	{object}	ErrorResponseBody
//	@Router		/curriculum/{id}/semesters [get]
func (h *APIHandler) Semesters(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tree, err := h.curricula.Semesters(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// Semester returns one semester node of a study programme.
//
//	@Summary	One semester of a curriculum
//	@Tags		Curriculum
//	@Produce	json
//	@Param		id	path		int	true	"Study programme ID"
//	@Param		n	path		int	true	"Semester number"
//	@Success	200	{object}	curriculum.SemesterNode
//	@Failure	404	{object}	ErrorResponseBody
//	@Router		/curriculum/{id}/semester/{n} [get]
func (h *APIHandler) Semester(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		h.fail(w, r, fault.Validation("parse path", fault.NoIndex, "semester %q is not a number", chi.URLParam(r, "n")))
		return
	}
	node, err := h.curricula.Semester(r.Context(), id, n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// CurriculumModule returns a module by code as scheduled in a study programme.
//
//	@Summary	Module of a curriculum
//	@Tags		Curriculum
//	@Produce	json
//	@Param		id		path		int		true	"Study programme ID"
//	@Param		code	path		string	true	"Module code"
//	@Success	200		{object}	app.ModuleInfo
//	@Failure	404		{object}	ErrorResponseBody
//	@Router		/curriculum/{id}/module/{code} [get]
func (h *APIHandler) CurriculumModule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	info, err := h.curricula.Module(r.Context(), id, chi.URLParam(r, "code"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// GetModule returns the stored module as an edit document.
//
//	@Summary	Editable module
//	@Tags		Module
//	@Produce	json
//	@Param		id	path		int	true	"Module ID"
//	@Success	200	{object}	revision.Document
//	@Failure	404	{object}	ErrorResponseBody
//	@Router		/module/{id} [get]
func (h *APIHandler) GetModule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	doc, err := h.revisions.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// PostModule replaces a module with the posted edit document.
//
//	@Summary	Edit module
//	@Tags		Module
//	@Accept		json
//	@Param		id		path	int					true	"Module ID"
//	@Param		edit	body	revision.Document	true	"Complete module edit"
//	@Success	204
//	@Failure	400	{object}	ErrorResponseBody
//	@Failure	404	{object}	ErrorResponseBody
//	@Failure	409	{object}	ErrorResponseBody
//	@Failure	503	{object}	ErrorResponseBody
//	@Router		/module/{id} [post]
func (h *APIHandler) PostModule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	doc, err := decodeDocument(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.revisions.Apply(r.Context(), id, doc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("X-Revision-Id", res.ID)
	w.WriteHeader(http.StatusNoContent)
}

func decodeDocument(w http.ResponseWriter, r *http.Request) (revision.Document, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return revision.Document{}, fault.Validation("decode body", fault.NoIndex, "read body: %v", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return revision.Document{}, fault.Validation("decode body", fault.NoIndex, "empty body")
	}
	var doc revision.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return revision.Document{}, fault.Validation("decode body", fault.NoIndex, "invalid JSON: %v", err)
	}
	return doc, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fault.Validation("parse path", fault.NoIndex, "%s %q is not a positive integer", name, raw)
	}
	return id, nil
}

// fail maps a classified error to a status code and writes the envelope.
// Server-side failures are logged and their detail withheld.
func (h *APIHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	msg := err.Error()
	if status >= 500 {
		h.logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", status).
			Msg("request failed")
		msg = http.StatusText(status)
	}
	writeError(w, status, code, msg)
}

func statusOf(err error) (int, string) {
	switch fault.KindOf(err) {
	case fault.KindValidation:
		return http.StatusBadRequest, "validation_failed"
	case fault.KindNotFound:
		return http.StatusNotFound, "not_found"
	case fault.KindUnavailable:
		return http.StatusServiceUnavailable, "store_unavailable"
	case fault.KindTransaction:
		if errors.Is(err, fault.ErrConstraint) {
			return http.StatusConflict, "constraint_violation"
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout, "timeout"
		}
		return http.StatusInternalServerError, "transaction_failed"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponseBody{Error: ErrorDetail{Code: code, Message: message}})
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	store HealthChecker
}

// HealthChecker is implemented by the database adapters.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(store HealthChecker) *HealthHandler {
	return &HealthHandler{store: store}
}

// Liveness returns a simple liveness check.
//
//	@Summary	Liveness check
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	map[string]string	"status: ok"
//	@Router		/health [get]
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness reports whether the store answers.
//
//	@Summary	Readiness check
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	map[string]string	"status: ok"
//	@Failure	503	{object}	map[string]string	"status: unhealthy"
//	@Router		/health/ready [get]
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.store != nil {
		if err := h.store.HealthCheck(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Version is set at build time.
var Version = "dev"

// VersionHandler returns the service version.
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: Version, Service: "fmms"})
}

// RouterConfig configures optional router features.
type RouterConfig struct {
	BasePath       string             // prefix of the API routes, e.g. "/fmms"
	RequestTimeout time.Duration      // 0 disables the per-request deadline
	Metrics        *metrics.Collector // nil disables request metrics
	MetricsPath    string             // "" disables the /metrics endpoint
	EnableOpenAPI  bool               // serve Swagger UI at /swagger/
	IDGen          ports.IDGenerator  // request IDs; chi's counter when nil
}

// NewRouter creates the HTTP router.
func NewRouter(api *APIHandler, health *HealthHandler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	// Middleware
	if cfg.IDGen != nil {
		r.Use(NewRequestIDMiddleware(cfg.IDGen))
	} else {
		r.Use(middleware.RequestID)
	}
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger, cfg.MetricsPath))
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics, cfg.MetricsPath))
	}

	// Health endpoints
	r.Get("/health", health.Liveness)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Get("/version", VersionHandler)

	if cfg.MetricsPath != "" {
		r.Handle(cfg.MetricsPath, promhttp.Handler())
	}

	if cfg.EnableOpenAPI {
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	routes := func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(NewTimeoutMiddleware(cfg.RequestTimeout))
		}
		r.Get("/curricula", api.ListCurricula)
		r.Get("/curriculum/{id}/semesters", api.Semesters)
		r.Get("/curriculum/{id}/semester/{n}", api.Semester)
		r.Get("/curriculum/{id}/module/{code}", api.CurriculumModule)
		r.Get("/module/{id}", api.GetModule)
		r.Post("/module/{id}", api.PostModule)
	}
	if base := strings.Trim(cfg.BasePath, "/"); base != "" {
		r.Route("/"+base, routes)
	} else {
		r.Group(routes)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" not allowed on "+r.URL.Path)
	})

	return r
}
