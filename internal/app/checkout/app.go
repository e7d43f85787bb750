// Package checkout собирает приложение оформления покупки: хранилище,
// кеш, провайдер аутентификации, брокер очередей, сервисы и HTTP-сервер.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/provaplus/checkout-provisioner/internal/cache"
	"github.com/provaplus/checkout-provisioner/internal/config"
	"github.com/provaplus/checkout-provisioner/internal/identity"
	"github.com/provaplus/checkout-provisioner/internal/lib/rabbitmq"
	"github.com/provaplus/checkout-provisioner/internal/migrations"
	checkoutservice "github.com/provaplus/checkout-provisioner/internal/services/checkout"
	"github.com/provaplus/checkout-provisioner/internal/services/provisioner"
	"github.com/provaplus/checkout-provisioner/internal/services/subscriptionlink"
	"github.com/provaplus/checkout-provisioner/internal/services/validator"
	"github.com/provaplus/checkout-provisioner/internal/storage/repository"
)

// App держит собранные зависимости приложения.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	amqpConn *amqp.Connection
}

// New собирает приложение по конфигу. Брокер очередей необязателен:
// без него оформление работает, события оплаты не публикуются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	identityClient := identity.NewClient(cfg.APIURL, cfg.APIKey, cfg.AdminKey, cfg.IdentityTimeout)

	var amqpConn *amqp.Connection
	var events checkoutservice.EventPublisher
	if cfg.AMQPURL != "" {
		amqpConn, err = amqp.Dial(cfg.AMQPURL)
		if err != nil {
			return nil, err
		}
		ch, err := amqpConn.Channel()
		if err != nil {
			return nil, err
		}
		if err := rabbitmq.SetupQueues(ch, cfg.Exchange, rabbitmq.GetCheckoutQueues()); err != nil {
			return nil, err
		}
		events = rabbitmq.NewPublisher(ch, cfg.Exchange)
	} else {
		logger.Warn("amqp url is not set, provisioned events will not be published")
	}

	validatorService := validator.New(db, db, db, logger)
	provisionerService := provisioner.New(identityClient, db, logger)
	linkerService := subscriptionlink.New(db, db, cacheRedis, logger)
	checkoutService := checkoutservice.New(
		validatorService,
		provisionerService,
		linkerService,
		events,
		logger,
	)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, checkoutService, db)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		amqpConn: amqpConn,
	}, nil
}

// Run запускает HTTP-сервер и ждет завершения контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.amqpConn != nil {
			_ = a.amqpConn.Close()
		}
		_ = a.db.DB.Close()
		return err
	}
}
