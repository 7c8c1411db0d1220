// Package app собирает приложение коучинг-платформы: хранилище, кеш,
// брокер событий, клиент платёжного процессора, сервисы и HTTP-сервер.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/coachflow/coaching-platform/internal/cache"
	"github.com/coachflow/coaching-platform/internal/config"
	"github.com/coachflow/coaching-platform/internal/lib/jwt"
	"github.com/coachflow/coaching-platform/internal/lib/password"
	"github.com/coachflow/coaching-platform/internal/migrations"
	"github.com/coachflow/coaching-platform/internal/paymentprovider"
	"github.com/coachflow/coaching-platform/internal/rabbitmq"
	authservice "github.com/coachflow/coaching-platform/internal/services/auth"
	leadservice "github.com/coachflow/coaching-platform/internal/services/lead"
	paymentservice "github.com/coachflow/coaching-platform/internal/services/payment"
	planservice "github.com/coachflow/coaching-platform/internal/services/plan"
	profileservice "github.com/coachflow/coaching-platform/internal/services/profile"
	progressservice "github.com/coachflow/coaching-platform/internal/services/progress"
	"github.com/coachflow/coaching-platform/internal/storage/repository"
)

// App инкапсулирует собранный HTTP-сервер и его зависимости.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *repository.Storage
	rabbitConn *amqp.Connection
	rabbitCh   *amqp.Channel
}

// New инициализирует все зависимости и возвращает готовое приложение.
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

	rabbitConn, err := rabbitmq.Connect(cfg.AddressRabbit, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}
	rabbitCh, err := rabbitmq.SetupChannel(rabbitConn, rabbitmq.GetEventQueues())
	if err != nil {
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(rabbitCh)

	providerClient := paymentprovider.NewClient(cfg.SecretKey, cfg.APIURL, cfg.Timeout)

	hasher := password.NewHasher(cfg.BcryptCost)
	jwtMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.NewAuthService(db, hasher, jwtMaker, logger)
	profileService := profileservice.NewProfileService(db, logger)
	leadService := leadservice.NewLeadService(db, hasher, publisher, logger)
	progressService := progressservice.NewProgressService(db, db, logger)
	planService := planservice.NewPlanService(db, cacheRedis, logger)
	paymentService := paymentservice.NewPaymentService(
		providerClient, db, db, publisher, cfg.PaymentProvider, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:          authService,
		Profile:       profileService,
		Lead:          leadService,
		Progress:      progressService,
		Plan:          planService,
		Payment:       paymentService,
		WebhookSecret: cfg.WebhookSecret,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		logger:     logger,
		db:         db,
		rabbitConn: rabbitConn,
		rabbitCh:   rabbitCh,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены контекста
// или фатальной ошибки сервера. Останов graceful.
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
		_ = a.rabbitCh.Close()
		_ = a.rabbitConn.Close()
		_ = a.db.Close()
		return err
	}
}
