package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"catalog/backend/internal/config"
	"catalog/backend/internal/domain/product"
	"catalog/backend/internal/observability"
	productusecase "catalog/backend/internal/usecase/product"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// ProductLister serves the paginated product listing.
type ProductLister interface {
	List(ctx context.Context, input productusecase.ListInput) (*product.Page, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TokenVerifier validates bearer tokens and returns their subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Dependencies are the collaborators the HTTP layer needs.
// Tokens, Metrics and Gatherer are optional.
type Dependencies struct {
	Products ProductLister
	DB       Pinger
	Tokens   TokenVerifier
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
}

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer     *http.Server
	router         chi.Router
	deps           Dependencies
	allowedOrigins []string
	logger         zerolog.Logger
	addr           string
}

// NewServer constructs a new Server with configured dependencies.
func NewServer(cfg config.Config, deps Dependencies, logger zerolog.Logger) *Server {
	addr := cfg.HTTPPort
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	srv := &Server{
		deps:           deps,
		allowedOrigins: cfg.AllowedOrigins,
		logger:         logger.With().Str("component", "http-server").Logger(),
		addr:           addr,
	}
	srv.router = srv.buildRouter()
	srv.httpServer = &http.Server{
		Addr:         addr,
		Handler:      srv.router,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSec) * time.Second,
	}
	return srv
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.withLogging)
	r.Use(middleware.Recoverer)
	r.Use(s.withCORS)

	r.Get("/health", s.handleHealth)
	if s.deps.Gatherer != nil {
		r.Get("/metrics", s.handleMetrics)
	}

	r.Group(func(r chi.Router) {
		if s.deps.Tokens != nil {
			r.Use(s.authMiddleware)
		}
		r.Get("/products", s.handleListProducts)
		r.Get("/api/products", s.handleListProducts)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMethodNotAllowed(w, http.MethodGet)
	})
	return r
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start bootstraps the HTTP server on the configured address.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.addr).Msg("HTTP server starting")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured network address for the HTTP server.
func (s *Server) Addr() string {
	return s.addr
}
