package leadmarketplace

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/lead-marketplace/internal/cache"
	"github.com/magabrotheeeer/lead-marketplace/internal/config"
	"github.com/magabrotheeeer/lead-marketplace/internal/lib/jwt"
	"github.com/magabrotheeeer/lead-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/lead-marketplace/internal/migrations"
	"github.com/magabrotheeeer/lead-marketplace/internal/plans"
	"github.com/magabrotheeeer/lead-marketplace/internal/rabbitmq"
	"github.com/magabrotheeeer/lead-marketplace/internal/services/allocator"
	"github.com/magabrotheeeer/lead-marketplace/internal/services/ledger"
	"github.com/magabrotheeeer/lead-marketplace/internal/services/reconciler"
	"github.com/magabrotheeeer/lead-marketplace/internal/services/scoring"
	"github.com/magabrotheeeer/lead-marketplace/internal/storage"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
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

	planTable := plans.Default()
	if cfg.PlansPath != "" {
		planTable, err = plans.Load(cfg.PlansPath)
		if err != nil {
			return nil, err
		}
	}

	// Брокер не обязателен: уведомления best-effort, без него сервис
	// продолжает работать.
	var publisher *rabbitmq.Publisher
	if cfg.RabbitMQConnection.AddressRabbitMQ != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQConnection.AddressRabbitMQ,
			cfg.RabbitMQConnection.RetriesRabbitMQ, cfg.RabbitMQConnection.DelayRabbitMQ)
		if err != nil {
			return nil, err
		}
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.Queues)
		if err != nil {
			return nil, err
		}
		publisher = rabbitmq.NewPublisher(ch)
	} else {
		logger.Warn("rabbitmq address is empty, notifications disabled")
	}

	jwtMaker := jwt.NewMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)

	ledgerService := ledger.New(db, planTable, logger)
	scoringService := scoring.New(db, cacheRedis, logger)

	var reconcilerService *reconciler.Service
	var allocatorService *allocator.Service
	if publisher != nil {
		reconcilerService = reconciler.New(db, planTable, publisher, logger)
		allocatorService = allocator.New(db, publisher, logger)
	} else {
		reconcilerService = reconciler.New(db, planTable, nil, logger)
		allocatorService = allocator.New(db, nil, logger)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Ledger:     ledgerService,
		Scoring:    scoringService,
		Reconciler: reconcilerService,
		Allocator:  allocatorService,
	}, jwtMaker, cfg.Webhook.WebhookSecret)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.TimeoutHTTP,
		WriteTimeout: cfg.HTTPServer.TimeoutHTTP,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

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
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", sl.Err(closeErr))
		}
		return err
	}
}
