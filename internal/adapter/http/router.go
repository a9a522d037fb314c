package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/credisol/crediledger/internal/adapter/http/handler"
	"github.com/credisol/crediledger/internal/adapter/http/middleware"
	"github.com/credisol/crediledger/internal/infrastructure/auth"
	"github.com/credisol/crediledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	CreditHandler   *handler.CreditHandler
	PaymentHandler  *handler.PaymentHandler
	BatchHandler    *handler.BatchHandler
	SuspenseHandler *handler.SuspenseHandler
	LedgerHandler   *handler.LedgerHandler
	AuthHandler     *handler.AuthHandler
	HealthHandler   *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore
	JWTManager       *auth.JWTManager
	RateLimiter      *middleware.RateLimiter
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Auth
		if cfg.AuthHandler != nil {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", cfg.AuthHandler.Login)
				if cfg.JWTManager != nil {
					r.With(middleware.AuthMiddleware(cfg.JWTManager)).Get("/me", cfg.AuthHandler.GetCurrentUser)
				}
			})
		}

		// Requests carry the caller identity when a token is present; voids
		// and payments fall back to the request body actor otherwise.
		if cfg.JWTManager != nil {
			r.Use(middleware.OptionalAuth(cfg.JWTManager))
		}

		// Credits
		r.Route("/credits", func(r chi.Router) {
			r.Post("/", cfg.CreditHandler.Create)
			r.Get("/", cfg.CreditHandler.List)
			r.Get("/{id}", cfg.CreditHandler.Get)
			r.Get("/{id}/installments", cfg.CreditHandler.ListInstallments)
			r.Get("/{id}/payments", cfg.CreditHandler.ListPayments)
			r.Get("/{id}/suspense", cfg.CreditHandler.ListSuspense)
			r.Post("/{id}/formalize", cfg.CreditHandler.Formalize)
			r.Post("/{id}/schedule/regenerate", cfg.CreditHandler.Regenerate)
		})

		// Payments
		r.Route("/payments", func(r chi.Router) {
			r.Post("/preview", cfg.PaymentHandler.Preview)
			r.Get("/{id}", cfg.PaymentHandler.Get)

			if cfg.JWTManager != nil {
				r.With(middleware.RequirePaymentRole).Post("/", cfg.PaymentHandler.Apply)
			} else {
				r.Post("/", cfg.PaymentHandler.Apply)
			}
		})

		// Planilla batches
		r.Route("/batches", func(r chi.Router) {
			r.Get("/{id}", cfg.BatchHandler.Get)

			if cfg.JWTManager != nil {
				r.With(middleware.RequirePaymentRole).Post("/", cfg.BatchHandler.Apply)
				r.With(middleware.RequireVoidRole).Post("/{id}/void", cfg.BatchHandler.Void)
			} else {
				r.Post("/", cfg.BatchHandler.Apply)
				r.Post("/{id}/void", cfg.BatchHandler.Void)
			}
		})

		// Suspense balances
		r.Route("/suspense", func(r chi.Router) {
			r.Get("/{id}", cfg.SuspenseHandler.Get)
			r.Post("/{id}/preview", cfg.SuspenseHandler.Preview)

			if cfg.JWTManager != nil {
				r.With(middleware.RequirePaymentRole).Post("/{id}/assign", cfg.SuspenseHandler.Assign)
			} else {
				r.Post("/{id}/assign", cfg.SuspenseHandler.Assign)
			}
		})

		// Ledger consistency
		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
	})

	return r
}
