// Package signalsapi собирает HTTP API комнаты сигналов.
package signalsapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/trading-signals/internal/cache"
	"github.com/magabrotheeeer/trading-signals/internal/config"
	"github.com/magabrotheeeer/trading-signals/internal/grpc/client"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/health"
	"github.com/magabrotheeeer/trading-signals/internal/http/middlewarectx"
	"github.com/magabrotheeeer/trading-signals/internal/hub"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/metrics"
	"github.com/magabrotheeeer/trading-signals/internal/migrations"
	"github.com/magabrotheeeer/trading-signals/internal/paymentprovider"
	"github.com/magabrotheeeer/trading-signals/internal/rabbitmq"
	"github.com/magabrotheeeer/trading-signals/internal/services/access"
	"github.com/magabrotheeeer/trading-signals/internal/services/admin"
	"github.com/magabrotheeeer/trading-signals/internal/services/payment"
	"github.com/magabrotheeeer/trading-signals/internal/services/profile"
	"github.com/magabrotheeeer/trading-signals/internal/services/signal"
	"github.com/magabrotheeeer/trading-signals/internal/storage"
	"github.com/magabrotheeeer/trading-signals/internal/telegram"
)

type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *storage.Storage
	cache      *cache.Cache
	authClient *client.AuthClient
	conn       *amqp.Connection
	ch         *amqp.Channel
	hub        *hub.Hub
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.signalsapi.New"

	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	authClient, err := client.NewAuthClient(cfg.GRPCAuthAddress)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = authClient.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = authClient.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	signalHub := hub.New(logger, m.WSClients)

	accessService := access.New(db, cacheRedis, logger, cfg.PlanStatusTTL)
	provider := paymentprovider.NewClient(cfg.PaystackSecretKey, cfg.PaystackBaseURL, cfg.PaystackCallbackURL, cfg.PaystackTimeout)
	tg := telegram.New(cfg.Telegram)

	if cfg.PaystackSecretKey == "" {
		logger.Warn("paystack secret key is not set, checkout is disabled")
	}
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == "" {
		logger.Warn("telegram bot is not configured, /notify/telegram will fail")
	}

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Logger:       logger,
		AuthClient:   authClient,
		Access:       accessService,
		Profile:      profile.New(db, accessService),
		Payments:     payment.New(db, provider, accessService, logger, m.PaymentsCompleted),
		Admin:        admin.New(db, accessService, logger, m.PaymentsCompleted),
		Signals:      signal.New(db, signalHub, rabbitmq.NewPublisher(ch, rabbitmq.Exchange), logger, m.SignalsPublished),
		Hub:          signalHub,
		Telegram:     tg,
		Metrics:      m,
		Limiter:      rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		LoginLimiter: middlewarectx.NewLoginLimiter(logger, redis_rate.NewLimiter(cacheRedis.Db), cfg.LoginPerMinute),
		Health: map[string]health.Check{
			"postgres": db.Ready,
			"redis":    cacheRedis.Ping,
			"auth":     authClient.Ping,
			"rabbitmq": func(context.Context) error {
				if conn.IsClosed() {
					return amqp.ErrClosed
				}
				return nil
			},
		},
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
		cache:      cacheRedis,
		authClient: authClient,
		conn:       conn,
		ch:         ch,
		hub:        signalHub,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

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

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	stopHub()
	a.close()
	return err
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.authClient.Close(); err != nil {
		a.logger.Error("failed to close auth client", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
