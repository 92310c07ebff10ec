package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/raysh454/browserbridge/internal/bridge"
	"github.com/raysh454/browserbridge/internal/logging"
	"github.com/raysh454/browserbridge/internal/metrics"
	"github.com/raysh454/browserbridge/internal/model"
)

// LivenessText is the body of GET /.
const LivenessText = "browserbridge is running"

// Solver performs commands. *bridge.Bridge implements it.
type Solver interface {
	Solve(ctx context.Context, cmd *model.Command) (*model.Solution, error)
	LiveSessions() int
}

// Server is the HTTP API surface of the bridge.
type Server struct {
	cfg     Config
	solver  Solver
	metrics *metrics.Metrics
	router  chi.Router
	logger  logging.Logger
}

// NewServer wires the routes around solver. m may be nil, in which case
// /metrics answers 404.
func NewServer(cfg Config, solver Solver, m *metrics.Metrics) *Server {
	def := DefaultConfig()
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	s := &Server{
		cfg:     cfg,
		solver:  solver,
		metrics: m,
		router:  chi.NewRouter(),
		logger:  logger.With(logging.Field{Key: "component", Value: "server"}),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	r.Options("/v1", s.optionsHandler("POST"))

	r.Get("/", s.handleIndex)
	r.Post("/v1", s.handleV1)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	s.logger.Info("http_request", fields...)

	// Bodies carry cookies and post data, so they only go to debug.
	if r.Body != nil && r.Method == http.MethodPost {
		if bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxBodyBytes+1)); err == nil {
			s.logger.Debug("http_request_body", logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe. There is no
// write timeout: a solve may legitimately run for maxTimeout plus queueing.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:        s.cfg.ListenAddr,
		Handler:     s,
		ReadTimeout: s.cfg.ReadTimeout,
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, kind bridge.Kind, msg string, start time.Time) {
	writeJSON(w, status, model.Envelope{
		Status:         model.StatusError,
		Message:        msg,
		Kind:           string(kind),
		StartTimestamp: start.UnixMilli(),
		EndTimestamp:   time.Now().UnixMilli(),
	})
}

// StatusForKind maps a failure kind to the HTTP status it is reported with.
func StatusForKind(kind bridge.Kind) int {
	switch kind {
	case bridge.KindInvalidCommand:
		return http.StatusBadRequest
	case bridge.KindOverloaded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// --- HTTP handlers ---

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, LivenessText)
}

func (s *Server) handleV1(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var cmd model.Command
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	// An empty body is treated as an empty command so it fails validation
	// with the usual message.
	if err := dec.Decode(&cmd); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, bridge.KindInvalidCommand, fmt.Sprintf("invalid JSON: %v", err), start)
		return
	}

	sol, err := s.solver.Solve(r.Context(), &cmd)
	if err != nil {
		kind := bridge.KindOf(err)
		writeError(w, StatusForKind(kind), kind, err.Error(), start)
		return
	}

	writeJSON(w, http.StatusOK, model.Envelope{
		Status:         model.StatusOK,
		Solution:       sol,
		StartTimestamp: start.UnixMilli(),
		EndTimestamp:   time.Now().UnixMilli(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:       model.StatusOK,
		LiveSessions: s.solver.LiveSessions(),
	})
}
