package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/xhedwig/ofdp-sdg/pkg/logging"
	"github.com/xhedwig/ofdp-sdg/pkg/metrics"
	"github.com/xhedwig/ofdp-sdg/pkg/pubsub"
	"github.com/xhedwig/ofdp-sdg/pkg/scheduler"
	"github.com/xhedwig/ofdp-sdg/pkg/topology"
)

// Schedule is the part of the scheduler the API exposes
type Schedule interface {
	LastRound() (scheduler.RoundSummary, bool)
	Trigger()
}

// Server represents the HTTP API of the controller
type Server struct {
	router    *mux.Router
	graph     *topology.Graph
	schedule  Schedule
	publisher pubsub.Publisher
	metrics   *metrics.Registry
}

// Option configures a Server
type Option func(*Server)

// WithPublisher serves SSE subscriptions and announces topology edits
func WithPublisher(p pubsub.Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithMetrics serves /metrics and records request metrics
func WithMetrics(r *metrics.Registry) Option {
	return func(s *Server) { s.metrics = r }
}

// NewServer creates the API server for a live topology and its scheduler
func NewServer(graph *topology.Graph, schedule Schedule, opts ...Option) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		graph:    graph,
		schedule: schedule,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

// Handler returns the routed handler, e.g. for httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware(s.observe))

	api := s.router.PathPrefix("/api").Subrouter()

	// SSE subscription endpoint
	api.HandleFunc("/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	api.HandleFunc("/topology", s.handleTopology).Methods("GET")
	api.HandleFunc("/schedule", s.handleSchedule).Methods("GET")
	api.HandleFunc("/trigger", s.handleTrigger).Methods("POST")

	api.HandleFunc("/nodes", s.handleAddNode).Methods("POST")
	api.HandleFunc("/nodes/{id:[0-9]+}", s.handleRemoveNode).Methods("DELETE")
	api.HandleFunc("/links", s.handleAddLink).Methods("POST")
	api.HandleFunc("/links/{a:[0-9]+}/{b:[0-9]+}", s.handleRemoveLink).Methods("DELETE")

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
}

// observe feeds request metrics, labelled by route template so that ids in
// paths do not explode the label space
func (s *Server) observe(r *http.Request, status int, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	path := r.URL.Path
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			path = tpl
		}
	}
	s.metrics.RecordHTTPRequest(r.Method, path, strconv.Itoa(status), duration)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
// Open SSE streams end with ctx.
func (s *Server) Run(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("serving HTTP API", "addr", lis.Addr().String())
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	<-errCh
	logging.Info("HTTP API stopped")
	return nil
}
