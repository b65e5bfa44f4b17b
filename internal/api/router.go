package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/statushub/statushub/internal/aggregator"
	"github.com/statushub/statushub/internal/auth"
	"github.com/statushub/statushub/internal/config"
	"github.com/statushub/statushub/internal/hub"
	"github.com/statushub/statushub/internal/middleware"
	"github.com/statushub/statushub/internal/probe"
	"github.com/statushub/statushub/internal/scheduler"
	"github.com/statushub/statushub/internal/store"
)

// Dependencies carries everything the handlers need
type Dependencies struct {
	Auth       *auth.Service
	Registry   *probe.Registry
	Aggregator *aggregator.Aggregator
	Scheduler  *scheduler.Scheduler
	Hub        *hub.Hub
	Logger     *slog.Logger

	// Interval is the configured cycle interval, used when the scheduler
	// is restarted through the API
	Interval time.Duration

	// Store and Recorder are nil when history persistence is disabled
	Store        *store.Store
	Recorder     *store.Recorder
	HistoryLimit int
}

// NewRouter creates and configures the API router
func NewRouter(cfg *config.Config, deps *Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))

	// CORS (if enabled)
	if cfg.CORS.Enabled {
		r.Use(middleware.CORS(
			cfg.CORS.AllowedOrigins,
			cfg.CORS.AllowedMethods,
			cfg.CORS.AllowedHeaders,
			cfg.CORS.MaxAgeSeconds,
		))
	}

	// Initialize handlers
	healthHandler := NewHealthHandler(deps)
	authHandler := NewAuthHandler(deps)
	statusHandler := NewStatusHandler(deps)
	controlHandler := NewControlHandler(deps)
	historyHandler := NewHistoryHandler(deps)
	streamHandler := NewStreamHandler(deps)

	// Public routes (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoint
		r.Post("/login", authHandler.Login)

		// Protected routes (require JWT)
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(deps.Auth))

			r.Get("/status", statusHandler.GetSnapshot)
			r.Get("/status/{probe}", statusHandler.GetProbe)
			r.Get("/probes", statusHandler.ListProbes)

			r.Post("/refresh", controlHandler.Refresh)
			r.Route("/scheduler", func(r chi.Router) {
				r.Get("/", controlHandler.GetScheduler)
				r.Post("/start", controlHandler.StartScheduler)
				r.Post("/stop", controlHandler.StopScheduler)
			})

			r.Get("/history/{probe}", historyHandler.GetHistory)
			r.Get("/stream", streamHandler.Stream)
		})
	})

	return r
}
