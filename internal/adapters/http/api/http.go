// Package api serves the published PoW view over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/futurepaul/popow/internal/domain/model"
)

const defaultMaxLimit = 500

// Dependencies required by HTTP handlers. The coordinator satisfies it; the
// interface keeps handlers testable without a relay.
type Dependencies interface {
	View(ctx context.Context) model.View
	Watch(ctx context.Context) <-chan model.View
	State() model.State
	Stats() model.Statistics
	TopN(ctx context.Context, n int) ([]model.ScoredEvent, error)
	Rank(ctx context.Context, id string) (int, model.ScoredEvent, error)
	Restart(ctx context.Context) error
}

// Server wires HTTP routes for the read API.
type Server struct {
	deps      Dependencies
	maxLimit  int
	heartbeat time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithMaxLimit caps the limit query parameter.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithHeartbeat sets the keep-alive interval of /stream.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.heartbeat = d
		}
	}
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:      deps,
		maxLimit:  defaultMaxLimit,
		heartbeat: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(methods(s.HandleHealth, http.MethodGet), "healthz"))
	mux.Handle("/metrics", MetricsHandler())
	mux.HandleFunc("/view", MetricsMiddleware(methods(s.HandleView, http.MethodGet), "view"))
	mux.HandleFunc("/ranked", MetricsMiddleware(methods(s.HandleRanked, http.MethodGet), "ranked"))
	mux.HandleFunc("/rank/", MetricsMiddleware(methods(s.HandleRank, http.MethodGet), "rank"))
	mux.HandleFunc("/stats", MetricsMiddleware(methods(s.HandleStats, http.MethodGet), "stats"))
	mux.HandleFunc("/stream", MetricsMiddleware(methods(s.HandleStream, http.MethodGet), "stream"))
	mux.HandleFunc("/reconnect", MetricsMiddleware(methods(s.HandleReconnect, http.MethodPost), "reconnect"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
