package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/config"
	"github.com/xavierca1/leadscout/internal/infra/http/handlers"
	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
	"github.com/xavierca1/leadscout/internal/session"
)

type routerDeps struct {
	cfg         *config.Config
	logger      *zap.Logger
	manager     *session.Manager
	health      *handlers.HealthHandler
	authLimiter *middleware.RateLimiter
}

func newRouter(d routerDeps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.logger.Named("auth"))
	feedHandler := handlers.NewFeedHandler(d.logger.Named("feed"))
	analysisHandler := handlers.NewAnalysisHandler(d.logger.Named("analysis"))
	searchHandler := handlers.NewSearchHandler()
	savedHandler := handlers.NewSavedLeadsHandler()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if d.cfg.Server.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Metrics)

	r.Get("/health", d.health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Device(d.manager, d.cfg.Session.CookieName, d.cfg.Server.CookieSecure))

		r.Route("/auth", func(r chi.Router) {
			r.Get("/session", authHandler.Session)
			r.Post("/sign-out", authHandler.SignOut)

			r.With(d.authLimiter.Limit).Post("/sign-in", authHandler.SignIn)
			r.With(d.authLimiter.Limit).Post("/sign-up", authHandler.SignUp)
		})

		r.Route("/app", func(r chi.Router) {
			r.Use(middleware.RequireWorkspace)

			r.Get("/status", feedHandler.Status)
			r.Get("/leads", feedHandler.Leads)
			r.Get("/leads/stream", feedHandler.Stream)

			r.Post("/search", searchHandler.Handle)
			r.Post("/analysis", analysisHandler.Run)
			r.Get("/analysis", analysisHandler.Get)
			r.Get("/saved", savedHandler.Handle)
		})
	})

	return r
}
