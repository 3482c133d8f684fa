// Package api exposes the HTTP interface for the foghorn service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/foghornhq/foghorn/internal/config"
	"github.com/foghornhq/foghorn/internal/metrics"
	"github.com/foghornhq/foghorn/internal/store"
)

// Server wires HTTP handlers to the stores.
type Server struct {
	router  chi.Router
	stores  store.Stores
	cfg     config.Config
	logger  *zap.Logger
	limiter *rateLimiter
	now     func() time.Time
}

// NewServer constructs a Server with middleware and routes.
func NewServer(stores store.Stores, cfg config.Config, logger *zap.Logger) *Server {
	s := &Server{
		stores:  stores,
		cfg:     cfg,
		logger:  logger,
		limiter: newRateLimiter(cfg.RateLimit.Max, cfg.RateLimitWindow()),
		now:     time.Now,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.limiter.middleware)
			r.Post("/auth/sign-up", s.signUp)
			r.Post("/auth/sign-in", s.signIn)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/teams", func(r chi.Router) {
				r.Post("/", s.createTeam)
				r.Get("/", s.listTeams)
				r.Get("/{id}", s.getTeam)
				r.Put("/{id}", s.updateTeam)
				r.Delete("/{id}", s.deleteTeam)
				r.Post("/{id}/members", s.addTeamMember)
				r.Get("/{id}/members", s.listTeamMembers)
				r.Delete("/{id}/members/{userId}", s.removeTeamMember)
			})

			r.Route("/sites", func(r chi.Router) {
				r.Post("/", s.createSite)
				r.Get("/", s.listSites)
				r.Get("/{id}", s.getSite)
				r.Put("/{id}", s.updateSite)
				r.Delete("/{id}", s.deleteSite)
			})

			r.Route("/pages", func(r chi.Router) {
				r.Get("/", s.listPages)
				r.Get("/{id}", s.getPage)
			})

			r.Get("/issues", s.listIssues)

			r.Route("/api-keys", func(r chi.Router) {
				r.Post("/", s.createAPIKey)
				r.Get("/", s.listAPIKeys)
				r.Delete("/{id}", s.deleteAPIKey)
			})
		})

		r.Route("/internal", func(r chi.Router) {
			r.Use(s.internalAuthMiddleware)
			r.Get("/sites/to-scrape", s.sitesToScrape)
			r.Patch("/sites/{id}/scrape-result", s.patchScrapeResult)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": "foghorn-api", "status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
