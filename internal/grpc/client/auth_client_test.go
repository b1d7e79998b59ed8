package client

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/magabrotheeeer/trading-signals/internal/grpc/authpb"
)

type fakeAuthServer struct {
	authpb.UnimplementedAuthServiceServer
}

func (fakeAuthServer) Register(_ context.Context, req *authpb.RegisterRequest) (*authpb.RegisterResponse, error) {
	switch req.Email {
	case "taken@example.com":
		return nil, status.Error(codes.AlreadyExists, "email already in use")
	case "short@example.com":
		return nil, status.Error(codes.InvalidArgument, "password must be at least 6 characters")
	}
	return &authpb.RegisterResponse{UserUid: "uid-" + req.DisplayName}, nil
}

func (fakeAuthServer) Login(_ context.Context, req *authpb.LoginRequest) (*authpb.LoginResponse, error) {
	if req.Password != "secret1" {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}
	return &authpb.LoginResponse{Token: "tok", Role: "user", UserUid: "uid-1"}, nil
}

func (fakeAuthServer) ValidateToken(_ context.Context, req *authpb.ValidateTokenRequest) (*authpb.ValidateTokenResponse, error) {
	if req.Token != "tok" {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}
	return &authpb.ValidateTokenResponse{UserUid: "uid-1", Email: "a@b.co", Role: "admin", Valid: true}, nil
}

func (fakeAuthServer) UpdateCredentials(context.Context, *authpb.UpdateCredentialsRequest) (*authpb.UpdateCredentialsResponse, error) {
	return nil, status.Error(codes.NotFound, "user not found")
}

func newBufClient(t *testing.T) *AuthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	authpb.RegisterAuthServiceServer(srv, fakeAuthServer{})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewAuthClient("passthrough:///bufnet", grpc.WithContextDialer(
		func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestAuthClient_Register(t *testing.T) {
	c := newBufClient(t)
	ctx := context.Background()

	uid, err := c.Register(ctx, "new@example.com", "secret1", "ann")
	require.NoError(t, err)
	assert.Equal(t, "uid-ann", uid)

	_, err = c.Register(ctx, "taken@example.com", "secret1", "")
	require.ErrorIs(t, err, ErrAlreadyExists)

	_, err = c.Register(ctx, "short@example.com", "123", "")
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "password must be at least 6 characters", Message(err))
}

func TestAuthClient_LoginAndValidate(t *testing.T) {
	c := newBufClient(t)
	ctx := context.Background()

	resp, err := c.Login(ctx, "a@b.co", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)

	_, err = c.Login(ctx, "a@b.co", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	v, err := c.ValidateToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "admin", v.Role)

	_, err = c.ValidateToken(ctx, "forged")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthClient_ErrorMapping(t *testing.T) {
	c := newBufClient(t)

	err := c.UpdateCredentials(context.Background(), "uid-1", "Ann", "a@b.co")
	require.ErrorIs(t, err, ErrNotFound)

	err = c.ChangePassword(context.Background(), "uid-1", "old", "new-secret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "not implemented")
}

func TestAuthClient_Ping(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewAuthClient("passthrough:///bufnet", grpc.WithContextDialer(
		func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	hs.SetServingStatus(authpb.AuthService_ServiceName, healthpb.HealthCheckResponse_SERVING)
	require.NoError(t, c.Ping(ctx))

	hs.SetServingStatus(authpb.AuthService_ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	require.ErrorIs(t, c.Ping(ctx), ErrUnavailable)
}
