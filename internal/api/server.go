// Package api exposes the Rigbook services over a JSON HTTP API built on
// huma and chi.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rigbook/rigbook-server/internal/config"
	"github.com/rigbook/rigbook-server/internal/metrics"
	"github.com/rigbook/rigbook-server/internal/ratelimit"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// securityIdentity names the gateway identity scheme in the OpenAPI document.
const securityIdentity = "identity"

// Server is the HTTP API server.
type Server struct {
	services *Services
	store    Pinger
	router   *chi.Mux
	api      huma.API
	limiter  *ratelimit.KeyedRateLimiter
	metrics  *metrics.Metrics
	cfg      *config.Config
	logger   *slog.Logger
	started  time.Time
}

// NewServer creates the API server and registers every route. m may be nil
// when metrics are disabled.
func NewServer(cfg *config.Config, services *Services, st Pinger, m *metrics.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		services: services,
		store:    st,
		router:   chi.NewRouter(),
		limiter:  ratelimit.New(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst),
		metrics:  m,
		cfg:      cfg,
		logger:   logger,
		started:  time.Now(),
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Rigbook API", Version)
	humaConfig.Info.Description = "Compose guitar rigs into setups and manage their signal chains."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		securityIdentity: {
			Type: "apiKey",
			In:   "header",
			Name: cfg.HTTP.IdentityHeader,
		},
	}
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler(logger)

	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources.
func (s *Server) Close() {
	s.limiter.Stop()
}

func (s *Server) setupMiddleware() {
	s.router.Use(requestID)
	if s.cfg.HTTP.TrustedProxy {
		s.router.Use(middleware.RealIP)
	}
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware(s.cfg.Metrics.Path))
	}
	s.router.Use(s.requestLogger)
	s.router.Use(s.recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.HTTP.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept", "Content-Type", requestIDHeader,
			s.cfg.HTTP.IdentityHeader, displayNameHeader,
		},
		ExposedHeaders: []string{requestIDHeader, "Retry-After"},
		MaxAge:         300,
	}))
	s.router.Use(s.identify)
	s.router.Use(s.rateLimit)
}

func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerSetupRoutes()
	s.registerChainRoutes()
	s.registerCommunityRoutes()
	s.registerCatalogueRoutes()
	s.registerTaxonomyRoutes()

	if s.metrics != nil && s.cfg.Metrics.Enabled {
		s.router.Method(http.MethodGet, s.cfg.Metrics.Path, s.metrics.Handler())
	}
}

// identityRequired is the security requirement for routes that need an actor.
var identityRequired = []map[string][]string{{securityIdentity: {}}}
