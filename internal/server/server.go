// Package server exposes the contract pipeline over HTTP. Jobs are
// processed synchronously inside the request; parked jobs are picked
// back up through the review endpoints.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"contractfill/internal/pipeline"
	"contractfill/internal/repository"
)

// Pipeline is the slice of pipeline.Processor the handlers need.
type Pipeline interface {
	Run(ctx context.Context, templateName string, documentPaths []string) (*pipeline.Outcome, error)
	Resume(ctx context.Context, jobID uuid.UUID, corrections map[string]string) (*pipeline.Outcome, error)
}

// Server wires the HTTP surface to the pipeline and job store.
type Server struct {
	logger    *slog.Logger
	pipeline  Pipeline
	jobs      repository.JobRepository
	gatherers prometheus.Gatherer
}

func New(logger *slog.Logger, p Pipeline, jobs repository.JobRepository, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{logger: logger, pipeline: p, jobs: jobs, gatherers: gatherer}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherers, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/jobs", s.handleCreateJob)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Get("/jobs/{id}/output", s.handleGetOutput)
		r.Post("/jobs/{id}/review", s.handleReview)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// logRequests emits one structured line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
