package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/curation-works/metacat/pkg/catalog"
	"github.com/curation-works/metacat/pkg/httputil"
	"github.com/curation-works/metacat/pkg/observability"
)

// Server exposes the catalog service and group directory over HTTP.
type Server struct {
	catalog *catalog.Service
	groups  GroupDirectory
	router  *mux.Router
	log     *observability.Logger
	metrics *observability.Metrics
}

// ServerOptions configures a Server.
type ServerOptions struct {
	Logger  *observability.Logger
	Metrics *observability.Metrics

	// AllowedOrigins enables CORS for the backoffice UI. Empty disables
	// CORS entirely.
	AllowedOrigins []string

	// MaxBodyBytes bounds request bodies; zero means 10 MiB.
	MaxBodyBytes int64
}

// NewServer creates the API server over the catalog service and group
// directory.
func NewServer(catalogService *catalog.Service, groupDirectory GroupDirectory, opts ServerOptions) *Server {
	log := opts.Logger
	if log == nil {
		log = observability.NewLogger(observability.InfoLevel, nil)
	}
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = 10 << 20
	}

	s := &Server{
		catalog: catalogService,
		groups:  groupDirectory,
		router:  mux.NewRouter(),
		log:     log,
		metrics: opts.Metrics,
	}
	s.setupRoutes(opts)
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes(opts ServerOptions) {
	middlewares := []mux.MiddlewareFunc{
		mux.MiddlewareFunc(httputil.RequestIDMiddleware(s.log)),
		mux.MiddlewareFunc(httputil.LoggingMiddleware(s.log)),
		mux.MiddlewareFunc(httputil.RecoveryMiddleware(s.log)),
		mux.MiddlewareFunc(httputil.MaxBytesMiddleware(opts.MaxBodyBytes)),
	}
	if len(opts.AllowedOrigins) > 0 {
		middlewares = append(middlewares, mux.MiddlewareFunc(httputil.CORSMiddleware(opts.AllowedOrigins)))
	}
	s.router.Use(middlewares...)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()

	// Group and membership routes. Registered before the kind routes so
	// /groups is not captured by the {kind} pattern.
	v1.HandleFunc("/groups", s.createGroup).Methods("POST")
	v1.HandleFunc("/groups", s.listGroups).Methods("GET")
	v1.HandleFunc("/groups/{groupId}", s.getGroup).Methods("GET")
	v1.HandleFunc("/groups/{groupId}", s.deleteGroup).Methods("DELETE")
	v1.HandleFunc("/groups/{groupId}/members", s.upsertMembership).Methods("POST")
	v1.HandleFunc("/groups/{groupId}/members", s.listMembers).Methods("GET")
	v1.HandleFunc("/entities/{metaId}/groups", s.listEntityGroups).Methods("GET")

	// Entity routes, one set per kind path segment.
	v1.HandleFunc("/{kind}", s.listEntities).Methods("GET")
	v1.HandleFunc("/{kind}", s.createEntity).Methods("POST")
	v1.HandleFunc("/{kind}", s.updateEntity).Methods("PUT")
	v1.HandleFunc("/{kind}/instances/{instanceId}", s.deleteEntity).Methods("DELETE")
	v1.HandleFunc("/{kind}/{metaId}", s.getEntities).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.metrics != nil {
		s.metrics.InstrumentHandler(routePattern(r), s.router).ServeHTTP(w, r)
		return
	}
	s.router.ServeHTTP(w, r)
}

// routePattern reduces the path to a bounded-cardinality metric label.
func routePattern(r *http.Request) string {
	if len(r.URL.Path) > 8 && r.URL.Path[:8] == "/api/v1/" {
		rest := r.URL.Path[8:]
		for i := 0; i < len(rest); i++ {
			if rest[i] == '/' {
				return "/api/v1/" + rest[:i] + "/*"
			}
		}
		return "/api/v1/" + rest
	}
	return "other"
}
