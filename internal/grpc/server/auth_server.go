// Package server реализует gRPC-сервер для авторизационного сервиса.
//
// AuthServer обрабатывает gRPC-запросы регистрации, входа, валидации JWT и смены учётных данных.
// Логирует операции и ошибки, делегирует бизнес-логику AuthService и переводит
// ошибки сервиса в коды gRPC.
package server

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/magabrotheeeer/trading-signals/internal/grpc/authpb"
	"github.com/magabrotheeeer/trading-signals/internal/lib/jwt"
	"github.com/magabrotheeeer/trading-signals/internal/lib/password"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/models"
	services "github.com/magabrotheeeer/trading-signals/internal/services/auth"
)

// AuthService бизнес-логика, которую обслуживает сервер.
type AuthService interface {
	Register(ctx context.Context, email, rawPassword, displayName string) (string, error)
	Login(ctx context.Context, email, rawPassword string) (*services.LoginResult, error)
	ValidateToken(ctx context.Context, token string) (*models.User, error)
	ChangePassword(ctx context.Context, uid, current, next string) error
	UpdateCredentials(ctx context.Context, uid, displayName, email string) error
}

// AuthServer реализует gRPC-сервис авторизации
type AuthServer struct {
	authpb.UnimplementedAuthServiceServer
	authService AuthService
	log         *slog.Logger
}

// NewAuthServer создает новый экземпляр AuthServer с указанным сервисом аутентификации и логгером.
func NewAuthServer(authService AuthService, logger *slog.Logger) *AuthServer {
	return &AuthServer{
		authService: authService,
		log:         logger,
	}
}

// toStatus переводит ошибку сервиса в статус gRPC.
func toStatus(err error) error {
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		return status.Error(codes.AlreadyExists, services.ErrEmailTaken.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, services.ErrInvalidCredentials.Error())
	case errors.Is(err, jwt.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, jwt.ErrInvalidToken.Error())
	case errors.Is(err, services.ErrInvalidEmail):
		return status.Error(codes.InvalidArgument, services.ErrInvalidEmail.Error())
	case errors.Is(err, password.ErrTooShort):
		return status.Error(codes.InvalidArgument, password.ErrTooShort.Error())
	case errors.Is(err, password.ErrTooLong):
		return status.Error(codes.InvalidArgument, password.ErrTooLong.Error())
	case errors.Is(err, services.ErrUserNotFound):
		return status.Error(codes.NotFound, services.ErrUserNotFound.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// Register создает нового пользователя
func (s *AuthServer) Register(ctx context.Context, req *authpb.RegisterRequest) (*authpb.RegisterResponse, error) {
	s.log.Info("Register request", slog.String("email", req.Email))

	uid, err := s.authService.Register(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		s.log.Error("Register failed", slog.String("email", req.Email), sl.Err(err))
		return nil, toStatus(err)
	}
	return &authpb.RegisterResponse{UserUid: uid}, nil
}

// Login проверяет пользователя и генерирует JWT
func (s *AuthServer) Login(ctx context.Context, req *authpb.LoginRequest) (*authpb.LoginResponse, error) {
	s.log.Info("Login request", slog.String("email", req.Email))

	res, err := s.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		s.log.Error("Login failed", slog.String("email", req.Email), sl.Err(err))
		return nil, toStatus(err)
	}
	return &authpb.LoginResponse{
		Token:   res.Token,
		Role:    res.Role,
		UserUid: res.UserUID,
	}, nil
}

// ValidateToken проверяет валидность JWT и возвращает данные пользователя
func (s *AuthServer) ValidateToken(ctx context.Context, req *authpb.ValidateTokenRequest) (*authpb.ValidateTokenResponse, error) {
	user, err := s.authService.ValidateToken(ctx, req.Token)
	if err != nil {
		s.log.Warn("Invalid token", sl.Err(err))
		return nil, toStatus(err)
	}
	return &authpb.ValidateTokenResponse{
		UserUid: user.UID,
		Email:   user.Email,
		Role:    user.Role,
		Valid:   true,
	}, nil
}

// ChangePassword меняет пароль после проверки текущего
func (s *AuthServer) ChangePassword(ctx context.Context, req *authpb.ChangePasswordRequest) (*authpb.ChangePasswordResponse, error) {
	s.log.Info("ChangePassword request", slog.String("user_uid", req.UserUid))

	if err := s.authService.ChangePassword(ctx, req.UserUid, req.CurrentPassword, req.NewPassword); err != nil {
		s.log.Error("ChangePassword failed", slog.String("user_uid", req.UserUid), sl.Err(err))
		return nil, toStatus(err)
	}
	return &authpb.ChangePasswordResponse{}, nil
}

// UpdateCredentials меняет имя и почту
func (s *AuthServer) UpdateCredentials(ctx context.Context, req *authpb.UpdateCredentialsRequest) (*authpb.UpdateCredentialsResponse, error) {
	s.log.Info("UpdateCredentials request", slog.String("user_uid", req.UserUid))

	if err := s.authService.UpdateCredentials(ctx, req.UserUid, req.DisplayName, req.Email); err != nil {
		s.log.Error("UpdateCredentials failed", slog.String("user_uid", req.UserUid), sl.Err(err))
		return nil, toStatus(err)
	}
	return &authpb.UpdateCredentialsResponse{}, nil
}
