// Package api provides the HTTP API server and handlers for the BBLib
// repertoire server.
package api

import (
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bblibapp/bblib-server/internal/config"
	"github.com/bblibapp/bblib-server/internal/logger"
	"github.com/bblibapp/bblib-server/internal/service"
)

// identityHeader carries the email of the signed-in user. The browser shell
// runs the login flow and forwards the result; this server never
// authenticates anyone itself.
const identityHeader = "X-BBLib-User"

// Server holds dependencies for HTTP handlers.
type Server struct {
	cfg    *config.Config
	svc    *service.LibraryService
	router *chi.Mux
	api    huma.API
	logger *logger.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, svc *service.LibraryService, log *logger.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		svc:    svc,
		router: chi.NewRouter(),
		logger: log,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("BBLib API", "1.0.0")
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerItemRoutes()
	s.registerMeRoutes()
	s.registerResponseRoutes()
	s.registerDashboardRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack. CORS is open because the
// browser shell may be served from any static host.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", identityHeader},
		MaxAge:         300,
	}))
}

// publicMode reports whether a request must be treated as read-only, either
// because the whole server runs in public mode or because the request asked
// for it with ?mode=public.
func (s *Server) publicMode(mode string) bool {
	return s.cfg.Access.PublicMode || strings.EqualFold(strings.TrimSpace(mode), "public")
}

// identity resolves the effective identity for a request. Public mode always
// yields the empty identity.
func (s *Server) identity(user, mode string) string {
	if s.publicMode(mode) {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(user))
}
