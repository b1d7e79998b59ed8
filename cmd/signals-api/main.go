// Package main содержит точку входа для HTTP API комнаты сигналов.
//
// @title           Trading Signals API
// @version         1.0
// @description     Подписка на торговые сигналы: тарифы, оплата через Paystack, комната сигналов и админка.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

//go:generate swag init --dir ../../ --generalInfo cmd/signals-api/main.go --output ../../docs --parseInternal

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/trading-signals/internal/app/signalsapi"
	"github.com/magabrotheeeer/trading-signals/internal/config"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.New(cfg.Env)

	logger.Info("starting signals-api", slog.String("env", cfg.Env))
	logger.Debug("debug messages are enabled")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := signalsapi.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize signals-api", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("signals-api stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("signals-api stopped gracefully")
}
