// Package server exposes the aggregation service over HTTP. The surface is
// deliberately thin: parameter binding, validation and error mapping live
// here, everything else is the aggregator's job.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/openshelf/openaccess-service/internal/aggregator"
	"github.com/openshelf/openaccess-service/internal/config"
	"github.com/openshelf/openaccess-service/internal/domain"
	"github.com/openshelf/openaccess-service/internal/observability"
	"github.com/openshelf/openaccess-service/internal/sources"
)

// requestIDHeader is echoed back on every response.
const requestIDHeader = "X-Request-ID"

// searchRequest is the bound and validated form of the search query string.
type searchRequest struct {
	Query          string `validate:"required,min=1,max=500"`
	YearStart      int    `validate:"omitempty,min=1000,max=2100"`
	YearEnd        int    `validate:"omitempty,min=1000,max=2100"`
	Discipline     string `validate:"omitempty,max=100"`
	EducationLevel string `validate:"omitempty,max=100"`
	Limit          int    `validate:"omitempty,min=1,max=100"`
	Offset         int    `validate:"omitempty,min=0"`
}

// Server is the HTTP front of the aggregation service.
type Server struct {
	httpServer *http.Server
	service    *aggregator.Service
	logger     zerolog.Logger
	validate   *validator.Validate
}

// New creates a Server listening per cfg, serving the given aggregator.
func New(cfg config.ServerConfig, service *aggregator.Service, logger zerolog.Logger) *Server {
	s := &Server{
		service:  service,
		logger:   logger.With().Str("component", "server").Logger(),
		validate: validator.New(),
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Routes builds the router. Exposed separately so tests can drive the
// handler stack without binding a socket.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/documents/{source}/{id}", s.handleGetDocument)
	})
	return r
}

// ListenAndServe runs the server until the context is cancelled, then shuts
// down gracefully within the given timeout.
func (s *Server) ListenAndServe(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := bindSearchRequest(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := s.service.Search(r.Context(), sources.SearchParams{
		Query:          req.Query,
		YearStart:      req.YearStart,
		YearEnd:        req.YearEnd,
		Discipline:     req.Discipline,
		EducationLevel: req.EducationLevel,
		Limit:          req.Limit,
		Offset:         req.Offset,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	sourceType, ok := domain.ParseSourceType(chi.URLParam(r, "source"))
	if !ok {
		s.writeError(w, r, http.StatusBadRequest, errors.New("unknown source"))
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.New("document id is required"))
		return
	}

	doc, err := s.service.GetDocument(r.Context(), sourceType, id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// bindSearchRequest reads the query string into a searchRequest. Numeric
// fields reject non-numeric input rather than silently zeroing it.
func bindSearchRequest(r *http.Request) (*searchRequest, error) {
	q := r.URL.Query()
	req := &searchRequest{
		Query:          q.Get("query"),
		Discipline:     q.Get("discipline"),
		EducationLevel: q.Get("education_level"),
	}

	for _, field := range []struct {
		name string
		dest *int
	}{
		{"year_start", &req.YearStart},
		{"year_end", &req.YearEnd},
		{"limit", &req.Limit},
		{"offset", &req.Offset},
	} {
		raw := q.Get(field.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New(field.name + " must be an integer")
		}
		*field.dest = n
	}
	return req, nil
}

// writeDomainError maps service errors to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		s.writeError(w, r, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrNotSupported):
		s.writeError(w, r, http.StatusNotImplemented, err)
	case errors.Is(err, domain.ErrRateLimited):
		s.writeError(w, r, http.StatusTooManyRequests, err)
	case errors.Is(err, domain.ErrServiceUnavailable):
		s.writeError(w, r, http.StatusBadGateway, err)
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		s.writeError(w, r, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, status, map[string]string{
		"error":      err.Error(),
		"request_id": observability.RequestIDFromContext(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestID assigns each request an ID, honoring one supplied by the
// caller, and echoes it in the response.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = observability.NewRequestID()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(observability.WithRequestID(r.Context(), id)))
	})
}

// logRequests logs one line per request and feeds the HTTP metrics.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		observability.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		observability.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		logger := observability.LoggerWithRequest(r.Context(), s.logger)
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", elapsed).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
