// Package auth собирает gRPC-сервис учётных записей.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/trading-signals/internal/config"
	"github.com/magabrotheeeer/trading-signals/internal/grpc/authpb"
	"github.com/magabrotheeeer/trading-signals/internal/grpc/server"
	"github.com/magabrotheeeer/trading-signals/internal/lib/jwt"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	authservices "github.com/magabrotheeeer/trading-signals/internal/services/auth"
	"github.com/magabrotheeeer/trading-signals/internal/storage"
)

// ServiceName имя сервиса для gRPC health.
const ServiceName = authpb.AuthService_ServiceName

type App struct {
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
	logger     *slog.Logger
	db         *storage.Storage
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.auth.New"

	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.Ready(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservices.NewAuthService(db, jwtMaker)

	if cfg.AdminEmail != "" {
		uid, err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: bootstrap admin: %w", op, err)
		}
		logger.Info("bootstrap admin ready", slog.String("user_uid", uid))
	}

	lis, err := net.Listen("tcp", cfg.GRPCAuthAddress)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	grpcServer := grpc.NewServer()
	authpb.RegisterAuthServiceServer(grpcServer, server.NewAuthServer(authService, logger))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &App{
		grpcServer: grpcServer,
		health:     healthServer,
		listener:   lis,
		logger:     logger,
		db:         db,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("Auth gRPC service listening on", slog.String("address", a.listener.Addr().String()))
		errCh <- a.grpcServer.Serve(a.listener)
	}()

	var err error
	select {
	case <-ctx.Done():
		a.health.Shutdown()
		a.grpcServer.GracefulStop()
	case err = <-errCh:
	}

	if cerr := a.db.Close(); cerr != nil {
		a.logger.Error("failed to close database", sl.Err(cerr))
	}
	return err
}
