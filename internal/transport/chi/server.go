// Package chi is the HTTP transport: routing, parameter parsing, DTO
// mapping and domain-error translation.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/propfind/searchcore/internal/domain"
	"github.com/propfind/searchcore/internal/domain/property"
	domquiz "github.com/propfind/searchcore/internal/domain/quiz"
	"github.com/propfind/searchcore/internal/domain/search/criteria"
	"github.com/propfind/searchcore/internal/domain/search/facet"
	"github.com/propfind/searchcore/internal/domain/search/result"
	"github.com/propfind/searchcore/internal/metrics"
	healthuc "github.com/propfind/searchcore/internal/usecase/health"
	quizuc "github.com/propfind/searchcore/internal/usecase/quiz"
)

const maxBatchSize = 100

// Consumer interfaces over the usecase services (ISP).
type (
	// Searcher runs property searches.
	Searcher interface {
		Search(ctx context.Context, c criteria.Criteria) (result.SearchResult, error)
	}

	// Faceter computes facet counts for criteria.
	Faceter interface {
		Counts(ctx context.Context, c criteria.Criteria) (facet.Counts, error)
	}

	// QuizManager owns quiz sessions.
	QuizManager interface {
		Create() quizuc.Session
		Get(id string) (quizuc.Session, error)
		Apply(id string, action domquiz.Action) (quizuc.Session, error)
		Results(ctx context.Context, id string) (result.SearchResult, error)
	}

	// PropertyStore ingests and serves property records.
	PropertyStore interface {
		Upsert(ctx context.Context, p property.Property) error
		UpsertBatch(ctx context.Context, props []property.Property) error
		Get(ctx context.Context, id string) (property.Property, error)
		Delete(ctx context.Context, id string) error
	}

	// HealthChecker aggregates component health.
	HealthChecker interface {
		Check(ctx context.Context) healthuc.Report
	}
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	search        Searcher
	facets        Faceter
	quiz          QuizManager
	properties    PropertyStore
	health        HealthChecker
	logger        *zap.Logger
	defaultLimit  int
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	facets Faceter,
	quiz QuizManager,
	properties PropertyStore,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:     search,
		facets:     facets,
		quiz:       quiz,
		properties: properties,
		health:     health,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidCriteria, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, codeSessionNotFound),
		sentinelHandler(domain.ErrPropertyNotFound, http.StatusNotFound, codePropertyNotFound),
		sentinelHandler(domain.ErrSuperseded, http.StatusConflict, codeSuperseded),
		sentinelHandler(domain.ErrStoreTimeout, http.StatusServiceUnavailable, codeStoreTimeout),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, codeStoreUnavailable),
	}
	return s
}

// WithDefaultPageSize sets the page size applied when a request carries no
// limit parameter.
func (s *Server) WithDefaultPageSize(n int) *Server {
	if n >= 1 {
		s.defaultLimit = n
	}
	return s
}

// Routes mounts all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/search/facets", s.handleFacets)

		r.Route("/properties", func(r chi.Router) {
			r.Post("/batch", s.handleBatchUpsert)
			r.Put("/{id}", s.handleUpsertProperty)
			r.Get("/{id}", s.handleGetProperty)
			r.Delete("/{id}", s.handleDeleteProperty)
		})

		r.Route("/quiz", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Post("/next", s.handleQuizAction(func(*http.Request) (domquiz.Action, error) {
					return domquiz.Next{}, nil
				}))
				r.Post("/prev", s.handleQuizAction(func(*http.Request) (domquiz.Action, error) {
					return domquiz.Prev{}, nil
				}))
				r.Post("/reset", s.handleQuizAction(func(*http.Request) (domquiz.Action, error) {
					return domquiz.Reset{}, nil
				}))
				r.Post("/jump", s.handleQuizAction(jumpAction))
				r.Post("/preferences", s.handleQuizAction(preferencesAction))
				r.Post("/select", s.handleQuizAction(selectAction))
				r.Get("/results", s.handleQuizResults)
			})
		})
	})
}

// handleSearch handles GET /api/v1/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	c, err := criteriaFromQuery(r.URL.Query(), s.defaultLimit, s.logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	res, err := s.search.Search(r.Context(), c)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	metrics.SearchesTotal.WithLabelValues(operationLabel(c)).Inc()
	writeJSON(w, http.StatusOK, searchResultToResponse(&res))
}

// handleFacets handles GET /api/v1/search/facets.
func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	// When a dimension is being faceted its own filter is excluded, so the
	// counts show what choosing each option would yield.
	if exclude := values.Get("exclude"); exclude != "" {
		dim := facet.Dimension(exclude)
		if !dim.IsValid() {
			writeError(w, http.StatusBadRequest, codeValidationFailed,
				"Unknown facet dimension: "+exclude)
			return
		}
		stripDimensionParams(values, dim)
	}

	c, err := criteriaFromQuery(values, s.defaultLimit, s.logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	counts, err := s.facets.Counts(r.Context(), c)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, countsToResponse(counts))
}

// handleUpsertProperty handles PUT /api/v1/properties/{id}.
func (s *Server) handleUpsertProperty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req upsertPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p := propertyFromRequest(id, req)
	if err := s.properties.Upsert(r.Context(), p); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, propertyToResponse(&p))
}

// handleBatchUpsert handles POST /api/v1/properties/batch.
func (s *Server) handleBatchUpsert(w http.ResponseWriter, r *http.Request) {
	var req batchUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Properties) == 0 || len(req.Properties) > maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"properties count must be between 1 and 100")
		return
	}

	props := make([]property.Property, 0, len(req.Properties))
	for id, item := range req.Properties {
		if id == "" {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "property id is required")
			return
		}
		props = append(props, propertyFromRequest(id, item))
	}

	if err := s.properties.UpsertBatch(r.Context(), props); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"upserted": len(props)})
}

// handleGetProperty handles GET /api/v1/properties/{id}.
func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := s.properties.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, propertyToResponse(&p))
}

// handleDeleteProperty handles DELETE /api/v1/properties/{id}.
func (s *Server) handleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	if err := s.properties.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateSession handles POST /api/v1/quiz.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.quiz.Create()
	writeJSON(w, http.StatusCreated, sessionToResponse(sess))
}

// handleGetSession handles GET /api/v1/quiz/{sessionID}.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.quiz.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(sess))
}

// handleQuizAction builds a handler that decodes one quiz action and applies
// it, returning the updated session.
func (s *Server) handleQuizAction(build func(r *http.Request) (domquiz.Action, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action, err := build(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}

		sess, err := s.quiz.Apply(chi.URLParam(r, "sessionID"), action)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionToResponse(sess))
	}
}

// handleQuizResults handles GET /api/v1/quiz/{sessionID}/results.
func (s *Server) handleQuizResults(w http.ResponseWriter, r *http.Request) {
	res, err := s.quiz.Results(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResultToResponse(&res))
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// handleMetrics handles GET /metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func jumpAction(r *http.Request) (domquiz.Action, error) {
	var req jumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.New("invalid request body: " + err.Error())
	}
	return domquiz.JumpTo{Index: req.Index}, nil
}

func preferencesAction(r *http.Request) (domquiz.Action, error) {
	var req updatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.New("invalid request body: " + err.Error())
	}
	return domquiz.UpdatePrefs{Partial: partialFromRequest(req)}, nil
}

func selectAction(r *http.Request) (domquiz.Action, error) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.New("invalid request body: " + err.Error())
	}
	return domquiz.SelectProperty{ID: req.PropertyID}, nil
}

func operationLabel(c criteria.Criteria) string {
	if op := c.Operation(); op != "" {
		return string(op)
	}
	return "any"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidCriteria,
		domain.ErrSessionNotFound,
		domain.ErrPropertyNotFound,
		domain.ErrSuperseded,
		domain.ErrStoreTimeout,
		domain.ErrStoreUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
