package api

import (
	"net/http"
	"sync/atomic"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/stats"
)

// sourceBox wraps the source so it can live behind an atomic.Pointer.
type sourceBox struct {
	source stats.Source
}

// Server is the statistics API server.
type Server struct {
	source  atomic.Pointer[sourceBox]
	router  *mux.Router
	health  *observability.HealthChecker
	metrics *observability.Metrics
}

// NewServer creates an API server over the given source. The snapshot
// handlers, health checker and metrics are each optional; their routes are
// only registered when provided.
func NewServer(source stats.Source, history History, health *observability.HealthChecker, metrics *observability.Metrics) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		health:  health,
		metrics: metrics,
	}
	s.Swap(source)
	s.setupRoutes(history)
	return s
}

// Swap replaces the serving source. In-flight requests keep the source they
// started with.
func (s *Server) Swap(source stats.Source) {
	s.source.Store(&sourceBox{source: source})
}

// Source returns the currently serving source.
func (s *Server) Source() stats.Source {
	return s.source.Load().source
}

// setupRoutes configures all the API routes.
func (s *Server) setupRoutes(history History) {
	s.router.HandleFunc("/api/v1/statistics", s.listStatistics).Methods("GET")
	s.router.HandleFunc("/api/v1/statistics/{name}", s.getStatistic).Methods("GET")

	if history != nil {
		NewSnapshotHandlers(history).RegisterRoutes(s.router)
	}

	if s.health != nil {
		s.router.HandleFunc("/health", s.health.Readiness).Methods("GET")
		s.router.HandleFunc("/health/live", s.health.Liveness).Methods("GET")
		s.router.HandleFunc("/health/ready", s.health.Readiness).Methods("GET")
	}

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RouteRegistrar is implemented by handler groups that attach their own
// routes.
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// RegisterRoutes attaches additional routes to the server's router.
func (s *Server) RegisterRoutes(registrar RouteRegistrar) {
	registrar.RegisterRoutes(s.router)
}
