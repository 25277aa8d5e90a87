package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/bookkeeper/internal/adapter/http/handler"
	"github.com/iho/bookkeeper/internal/adapter/http/middleware"
	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/infrastructure/metrics"
	"github.com/iho/bookkeeper/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler *handler.AccountHandler
	EntryHandler   *handler.EntryHandler
	LedgerHandler  *handler.LedgerHandler
	HealthHandler  *handler.HealthHandler

	// Verifier authenticates bearer tokens. When nil every API request acts
	// as StaticPrincipal.
	Verifier        middleware.TokenVerifier
	StaticPrincipal domain.Principal

	IdempotencyStore   usecase.IdempotencyStore
	IdempotencyTTL     time.Duration
	RateLimitPerMinute int
	Production         bool

	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.SecureHeaders(cfg.Production, cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Verifier != nil {
			r.Use(middleware.Auth(cfg.Verifier))
		} else {
			r.Use(middleware.StaticPrincipal(cfg.StaticPrincipal))
		}
		r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
		if cfg.RateLimitPerMinute > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
		}
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
		}

		view := middleware.RequireCapability(domain.CapabilityView)
		record := middleware.RequireCapability(domain.CapabilityRecordEntries)
		manage := middleware.RequireCapability(domain.CapabilityManageAccounts)

		r.Route("/accounts", func(r chi.Router) {
			r.With(manage).Post("/", cfg.AccountHandler.Create)
			r.With(view).Get("/", cfg.AccountHandler.List)
			r.With(view).Get("/{id}", cfg.AccountHandler.Get)
			r.With(view).Get("/{id}/path", cfg.AccountHandler.Path)
			r.With(view).Get("/{id}/children", cfg.AccountHandler.Children)
			r.With(view).Get("/{id}/balance", cfg.AccountHandler.Balance)
			r.With(view).Get("/{id}/movements", cfg.AccountHandler.Movements)
			r.With(manage).Post("/{id}/deactivate", cfg.AccountHandler.Deactivate)
			r.With(manage).Delete("/{id}", cfg.AccountHandler.Delete)
		})

		r.Route("/entries", func(r chi.Router) {
			r.With(record).Post("/", cfg.EntryHandler.Create)
			r.With(view).Get("/", cfg.EntryHandler.List)
			r.With(view).Get("/{id}", cfg.EntryHandler.Get)
			r.With(view).Get("/{id}/check", cfg.EntryHandler.Check)
			r.With(record).Post("/{id}/movements", cfg.EntryHandler.AddMovement)
			r.With(record).Put("/{id}/movements/{movementID}", cfg.EntryHandler.UpdateMovement)
			r.With(record).Delete("/{id}/movements/{movementID}", cfg.EntryHandler.RemoveMovement)
			r.With(record).Post("/{id}/post", cfg.EntryHandler.Post)
			r.With(record).Post("/{id}/void", cfg.EntryHandler.Void)
			r.With(record).Post("/{id}/duplicate", cfg.EntryHandler.Duplicate)
			r.With(record).Delete("/{id}", cfg.EntryHandler.Delete)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Use(view)
			r.Get("/consistency", cfg.LedgerHandler.Consistency)
			r.Get("/reconciliation", cfg.LedgerHandler.Reconciliation)
		})
	})

	return r
}
