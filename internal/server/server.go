package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/catering/dashboard/internal/charts"
	"github.com/catering/dashboard/internal/legacy"
	"github.com/catering/dashboard/internal/orchestrator"
	"github.com/catering/dashboard/internal/reports"
	"github.com/catering/dashboard/internal/results"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Coordinator is what the HTTP layer needs from the run coordinator.
type Coordinator interface {
	Run(ctx context.Context, testID string, verbose bool) (*results.RunResponse, error)
	RunAll(ctx context.Context, verbose bool) (*results.RunResponse, error)
	Status() orchestrator.Status
	Cached() *results.RunResponse
}

type Options struct {
	UnitReportPath string
	E2EReportPath  string
	CORSOrigins    []string
}

type Server struct {
	coord  Coordinator
	charts *charts.Generator
	opts   Options
}

func NewServer(coord Coordinator, opts Options) *Server {
	return &Server{
		coord:  coord,
		charts: charts.NewGenerator(),
		opts:   opts,
	}
}

type runRequest struct {
	TestID  string `json:"testId"`
	Verbose bool   `json:"verbose"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/tests", func(r chi.Router) {
		r.Post("/run", s.handleRun)
		r.Post("/run-all", s.handleRunAll)
		r.Get("/results", s.handleResults)
		r.Get("/results/chart", s.handleResultsChart)
		r.Get("/status", s.handleStatus)

		r.Get("/legacy/unit", s.handleLegacyUnit)
		r.Get("/legacy/e2e", s.handleLegacyEndToEnd)
		r.Get("/legacy/summary", s.handleLegacySummary)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// A spawned tool runs to completion even if the client goes away.
	resp, err := s.coord.Run(context.WithoutCancel(r.Context()), req.TestID, req.Verbose)
	if err != nil {
		s.runFailed(w, req.TestID, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRunAll(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := s.coord.RunAll(context.WithoutCancel(r.Context()), req.Verbose)
	if err != nil {
		s.runFailed(w, orchestrator.TestAll, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) runFailed(w http.ResponseWriter, testID string, err error) {
	var unknown *orchestrator.UnknownTestError
	switch {
	case errors.Is(err, orchestrator.ErrRunInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &unknown):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("Error running %s tests: %v", testID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleResults answers null until something has completed.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.coord.Cached())
}

func (s *Server) handleResultsChart(w http.ResponseWriter, r *http.Request) {
	cached := s.coord.Cached()
	if cached == nil {
		writeError(w, http.StatusNotFound, "No results available yet")
		return
	}

	page, err := s.charts.Page(cached)
	if err != nil {
		log.Printf("Error rendering chart: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to render chart")
		return
	}
	w.Header().Set("Content-Type", "text/html")
	io.WriteString(w, page)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.coord.Status())
}

func (s *Server) handleLegacyUnit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.legacySuites(s.opts.UnitReportPath, results.KindUnit))
}

func (s *Server) handleLegacyEndToEnd(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.legacySuites(s.opts.E2EReportPath, results.KindEndToEnd))
}

func (s *Server) handleLegacySummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, legacy.Summary{
		Unit:     s.legacySuites(s.opts.UnitReportPath, results.KindUnit),
		EndToEnd: s.legacySuites(s.opts.E2EReportPath, results.KindEndToEnd),
	})
}

// legacySuites re-derives the legacy shape from the report on disk. A
// missing or unreadable report is an empty list.
func (s *Server) legacySuites(path string, kind results.SuiteKind) []legacy.Suite {
	suites, _, err := reports.LoadUnitSuites(path, kind)
	if err != nil {
		log.Printf("Error reading report for legacy results: %v", err)
	}
	return legacy.ToLegacyShape(suites)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Message: message})
}
