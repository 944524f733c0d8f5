package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pbaille/timecsv/internal/clockify"
	"github.com/pbaille/timecsv/internal/domain"
	"github.com/pbaille/timecsv/internal/duration"
	"github.com/pbaille/timecsv/internal/logging"
	"github.com/pbaille/timecsv/internal/report"
)

// ReportGenerator produces a monthly report for the owner of an API key
type ReportGenerator interface {
	Generate(ctx context.Context, apiKey string) (*report.Report, error)
	GenerateForMonth(ctx context.Context, apiKey string, month time.Time) (*report.Report, error)
}

// RunLister lists recorded report runs
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]domain.ReportRun, error)
}

// Server handles HTTP requests for the report API
type Server struct {
	reports ReportGenerator
	runs    RunLister
	addr    string
	logger  *slog.Logger
}

// New creates a new API server. runs may be nil when history is disabled.
func New(reports ReportGenerator, runs RunLister, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{reports: reports, runs: runs, addr: addr, logger: logger}
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /generateCsv", s.handle(s.generateCsv))
	mux.Handle("GET /runs", s.handle(s.listRuns))
	mux.HandleFunc("GET /health", s.health)

	return s.withRequestLog(withCORS(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// withCORS adds CORS headers for browser clients
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
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

// withRequestLog tags each request with an ID and logs its outcome
func (s *Server) withRequestLog(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)

		s.logger.InfoContext(r.Context(), "http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// handlerFunc is a handler whose errors are mapped to responses by handle
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) handle(fn handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			status := statusFor(err)
			message := err.Error()
			if status == http.StatusInternalServerError {
				message = http.StatusText(status)
			}
			if status >= http.StatusInternalServerError {
				s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "status", status, "error", err)
			}
			writeError(w, status, message)
		}
	})
}

// requestError carries a client-facing status
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status
	case errors.Is(err, clockify.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, clockify.ErrUnavailable),
		errors.Is(err, clockify.ErrMalformedResponse),
		errors.Is(err, duration.ErrMalformed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GenerateCsvRequest is the request body for generating a report
type GenerateCsvRequest struct {
	APIKey string `json:"apiKey"`
	Month  string `json:"month,omitempty"` // YYYY-MM, defaults to the current month
}

// GenerateCsvResponse carries the base64-encoded CSV
type GenerateCsvResponse struct {
	Result string `json:"result"`
}

func (s *Server) generateCsv(w http.ResponseWriter, r *http.Request) error {
	var req GenerateCsvRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return badRequest("invalid request body")
	}
	if strings.TrimSpace(req.APIKey) == "" {
		return badRequest("apiKey is required")
	}

	var (
		rep *report.Report
		err error
	)
	if req.Month != "" {
		month, perr := report.ParseMonth(req.Month, time.Local)
		if perr != nil {
			return badRequest("month must be YYYY-MM")
		}
		rep, err = s.reports.GenerateForMonth(r.Context(), req.APIKey, month)
	} else {
		rep, err = s.reports.Generate(r.Context(), req.APIKey)
	}
	if err != nil {
		return err
	}

	if rep == nil || rep.Base64 == "" {
		writeError(w, http.StatusInternalServerError, "Failed to generate CSV")
		return nil
	}

	writeJSON(w, http.StatusOK, GenerateCsvResponse{Result: rep.Base64})
	return nil
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) error {
	if s.runs == nil {
		return &requestError{status: http.StatusNotFound, message: "run history is disabled"}
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []domain.ReportRun{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"limit": limit,
	})
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
