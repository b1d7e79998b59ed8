// Package sender собирает воркер, доставляющий уведомления из RabbitMQ.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/trading-signals/internal/config"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/lib/smtp"
	"github.com/magabrotheeeer/trading-signals/internal/metrics"
	"github.com/magabrotheeeer/trading-signals/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/trading-signals/internal/services/sender"
	"github.com/magabrotheeeer/trading-signals/internal/storage"
	"github.com/magabrotheeeer/trading-signals/internal/telegram"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	db            *storage.Storage
	senderService *senderservice.SenderService
	metricsAddr   string
	logger        *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"

	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	if !transport.Configured() {
		logger.Warn("smtp is not configured, e-mails will be skipped")
	}
	m := metrics.New(prometheus.DefaultRegisterer)
	senderService := senderservice.NewSenderService(db, telegram.New(cfg.Telegram), transport, cfg.LoginURL, logger, m.Notifications)

	return &App{
		conn:          conn,
		ch:            ch,
		db:            db,
		senderService: senderService,
		metricsAddr:   cfg.MetricsAddress,
		logger:        logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	go metrics.Serve(ctx, a.metricsAddr, a.logger)

	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.SignalQueue.QueueName, a.senderService.SendSignalAlert)
	if err != nil {
		a.logger.Error("failed to start signal consumer", sl.Err(err))
		return err
	}

	err = rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.PlanExpiringQueue.QueueName, a.senderService.SendPlanExpiring)
	if err != nil {
		a.logger.Error("failed to start plan expiring consumer", sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
	return nil
}
