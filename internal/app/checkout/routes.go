package checkout

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/provaplus/checkout-provisioner/internal/http/handlers/checkout/create"
	"github.com/provaplus/checkout-provisioner/internal/http/handlers/checkout/health"
	"github.com/provaplus/checkout-provisioner/internal/http/middlewarectx"
	checkoutservice "github.com/provaplus/checkout-provisioner/internal/services/checkout"
	"github.com/provaplus/checkout-provisioner/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, checkoutService *checkoutservice.Service, storage *repository.Storage) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger))
		r.Post("/checkout", create.New(logger, checkoutService).ServeHTTP)
	})

	r.Get("/health", health.New(logger, storage).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
