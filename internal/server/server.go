// Package server provides the HTTP server and routing for the rebalancer.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/di"
	allocationhandlers "github.com/aristath/rebalancer/internal/modules/allocation/handlers"
	portfoliohandlers "github.com/aristath/rebalancer/internal/modules/portfolio/handlers"
	rebalancinghandlers "github.com/aristath/rebalancer/internal/modules/rebalancing/handlers"
	tradinghandlers "github.com/aristath/rebalancer/internal/modules/trading/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Port      int
	DevMode   bool
	Container *di.Container
}

// routeModule is implemented by every module's handler
type routeModule interface {
	RegisterRoutes(r chi.Router)
}

// Server serves the JSON API over the wired container
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	cfg       *config.Config
	container *di.Container
	system    *SystemHandlers
}

// New builds the router; nothing listens until Start
func New(cfg Config) *Server {
	c := cfg.Container

	system := NewSystemHandlers(c.DB, c.SetupService, c.AssetRepo, c.AllocationRepo, c.ActionRepo, cfg.Config, cfg.Log)
	if c.Scheduler != nil {
		system.SetScheduler(c.Scheduler)
	}

	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: c,
		system:    system,
	}

	s.router.Use(s.middlewares(cfg.DevMode)...)
	s.mountRoutes(cfg.Log)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// a rebalance waits on one price lookup per holding
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) middlewares(devMode bool) []func(http.Handler) http.Handler {
	mw := []func(http.Handler) http.Handler{
		middleware.Recoverer,
		middleware.RequestID,
		middleware.RealIP,
		s.requestLogger,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}),
	}
	if !devMode {
		mw = append(mw, middleware.Compress(5))
	}
	return mw
}

func (s *Server) mountRoutes(log zerolog.Logger) {
	c := s.container

	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", c.Metrics.Handler())

	modules := []routeModule{
		portfoliohandlers.NewHandler(c.AssetRepo, log),
		allocationhandlers.NewHandler(c.AllocationRepo, log),
		tradinghandlers.NewHandler(c.ActionRepo, log),
		rebalancinghandlers.NewHandler(c.RebalancingService, s.cfg.ReferenceCurrency, log),
	}

	s.router.Route("/api", func(r chi.Router) {
		for _, m := range modules {
			m.RegisterRoutes(r)
		}
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.system.HandleSystemStatus)
			r.Get("/database/stats", s.system.HandleDatabaseStats)
			r.Post("/initialize", s.system.HandleInitialize)
		})
	})
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// requestLogger logs every request; failures are raised to warn and error
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		var event *zerolog.Event
		switch status := ww.Status(); {
		case status >= http.StatusInternalServerError:
			event = s.log.Error()
		case status >= http.StatusBadRequest:
			event = s.log.Warn()
		case r.URL.Path == "/health" || r.URL.Path == "/metrics":
			event = s.log.Debug()
		default:
			event = s.log.Info()
		}

		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(started)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
