// Package client gRPC-клиент сервиса авторизации для HTTP API.
package client

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/magabrotheeeer/trading-signals/internal/grpc/authpb"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrUnavailable        = errors.New("auth service unavailable")
)

// callError ошибка вызова с текстом от сервиса.
type callError struct {
	kind error
	msg  string
}

func (e *callError) Error() string { return e.msg }
func (e *callError) Unwrap() error { return e.kind }

// Message возвращает текст ошибки, присланный сервисом авторизации.
func Message(err error) string {
	var ce *callError
	if errors.As(err, &ce) {
		return ce.msg
	}
	return err.Error()
}

func mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var kind error
	switch st.Code() {
	case codes.Unauthenticated:
		kind = ErrInvalidCredentials
	case codes.AlreadyExists:
		kind = ErrAlreadyExists
	case codes.InvalidArgument:
		kind = ErrInvalidArgument
	case codes.NotFound:
		kind = ErrNotFound
	case codes.Unavailable, codes.DeadlineExceeded:
		kind = ErrUnavailable
	default:
		return fmt.Errorf("auth: %w", err)
	}
	return &callError{kind: kind, msg: st.Message()}
}

// AuthClient обёртка над authpb.AuthServiceClient.
type AuthClient struct {
	conn   *grpc.ClientConn
	client authpb.AuthServiceClient
}

// NewAuthClient создаёт клиента; соединение устанавливается лениво при первом вызове.
func NewAuthClient(addr string, opts ...grpc.DialOption) (*AuthClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &AuthClient{conn: conn, client: authpb.NewAuthServiceClient(conn)}, nil
}

func (a *AuthClient) Close() error {
	return a.conn.Close()
}

// Ping спрашивает у gRPC health статус сервиса авторизации.
func (a *AuthClient) Ping(ctx context.Context) error {
	resp, err := healthpb.NewHealthClient(a.conn).Check(ctx, &healthpb.HealthCheckRequest{
		Service: authpb.AuthService_ServiceName,
	})
	if err != nil {
		return mapError(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return ErrUnavailable
	}
	return nil
}

func (a *AuthClient) Register(ctx context.Context, email, password, displayName string) (string, error) {
	resp, err := a.client.Register(ctx, &authpb.RegisterRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	})
	if err != nil {
		return "", mapError(err)
	}
	return resp.UserUid, nil
}

func (a *AuthClient) Login(ctx context.Context, email, password string) (*authpb.LoginResponse, error) {
	resp, err := a.client.Login(ctx, &authpb.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func (a *AuthClient) ValidateToken(ctx context.Context, token string) (*authpb.ValidateTokenResponse, error) {
	resp, err := a.client.ValidateToken(ctx, &authpb.ValidateTokenRequest{Token: token})
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func (a *AuthClient) ChangePassword(ctx context.Context, uid, current, next string) error {
	_, err := a.client.ChangePassword(ctx, &authpb.ChangePasswordRequest{
		UserUid:         uid,
		CurrentPassword: current,
		NewPassword:     next,
	})
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (a *AuthClient) UpdateCredentials(ctx context.Context, uid, displayName, email string) error {
	_, err := a.client.UpdateCredentials(ctx, &authpb.UpdateCredentialsRequest{
		UserUid:     uid,
		DisplayName: displayName,
		Email:       email,
	})
	if err != nil {
		return mapError(err)
	}
	return nil
}
