// Package leadmarketplace предоставляет маршруты для основного приложения.
package leadmarketplace

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	checkoutverify "github.com/magabrotheeeer/lead-marketplace/internal/http/handlers/checkout/verify"
	"github.com/magabrotheeeer/lead-marketplace/internal/http/handlers/health"
	leadcontact "github.com/magabrotheeeer/lead-marketplace/internal/http/handlers/lead/contact"
	leadcreate "github.com/magabrotheeeer/lead-marketplace/internal/http/handlers/lead/create"
	leadlist "github.com/magabrotheeeer/lead-marketplace/internal/http/handlers/lead/list"
	leadpurchase "github.com/magabrotheeeer/lead-marketplace/internal/http/handlers/lead/purchase"
	leadread "github.com/magabrotheeeer/lead-marketplace/internal/http/handlers/lead/read"
	leadview "github.com/magabrotheeeer/lead-marketplace/internal/http/handlers/lead/view"
	"github.com/magabrotheeeer/lead-marketplace/internal/http/handlers/lender/aisearch"
	"github.com/magabrotheeeer/lead-marketplace/internal/http/handlers/lender/credits"
	"github.com/magabrotheeeer/lead-marketplace/internal/http/handlers/lender/purchased"
	"github.com/magabrotheeeer/lead-marketplace/internal/http/handlers/payment/webhook"
	scoreread "github.com/magabrotheeeer/lead-marketplace/internal/http/handlers/score/read"
	scorerecompute "github.com/magabrotheeeer/lead-marketplace/internal/http/handlers/score/recompute"
	"github.com/magabrotheeeer/lead-marketplace/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lead-marketplace/internal/lib/jwt"
	"github.com/magabrotheeeer/lead-marketplace/internal/services/allocator"
	"github.com/magabrotheeeer/lead-marketplace/internal/services/ledger"
	"github.com/magabrotheeeer/lead-marketplace/internal/services/reconciler"
	"github.com/magabrotheeeer/lead-marketplace/internal/services/scoring"
)

// Services сервисы приложения, доступные HTTP-слою.
type Services struct {
	Ledger     *ledger.Service
	Scoring    *scoring.Service
	Reconciler *reconciler.Service
	Allocator  *allocator.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc *Services, jwtMaker jwt.Maker, webhookSecret string) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.Metrics,
	)

	rateLimiter := middlewarectx.NewRateLimiter(10, 20)

	r.Route("/api/v1", func(r chi.Router) {
		// Webhook платёжного провайдера: аутентификация подписью, не JWT
		r.Post("/payments/webhook", webhook.New(logger, svc.Reconciler, webhookSecret).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(rateLimiter.Middleware)

			r.Get("/leads", leadlist.New(logger, svc.Allocator).ServeHTTP)
			r.Post("/leads", leadcreate.New(logger, svc.Allocator).ServeHTTP)
			r.Get("/leads/{id}", leadread.New(logger, svc.Allocator).ServeHTTP)
			r.Post("/leads/{id}/purchase", leadpurchase.New(logger, svc.Allocator).ServeHTTP)
			r.Post("/leads/{id}/view", leadview.New(logger, svc.Allocator).ServeHTTP)
			r.Post("/leads/{id}/contact", leadcontact.New(logger, svc.Allocator).ServeHTTP)

			r.Get("/lenders/me/credits", credits.New(logger, svc.Ledger).ServeHTTP)
			r.Get("/lenders/me/leads", purchased.New(logger, svc.Allocator).ServeHTTP)
			r.Post("/lenders/me/ai-search/debit", aisearch.New(logger, svc.Ledger).ServeHTTP)

			r.Post("/checkout/verify", checkoutverify.New(logger, svc.Ledger).ServeHTTP)

			r.Post("/borrowers/{uid}/score", scorerecompute.New(logger, svc.Scoring).ServeHTTP)
			r.Get("/borrowers/{uid}/score", scoreread.New(logger, svc.Scoring).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
