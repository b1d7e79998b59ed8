package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/magabrotheeeer/trading-signals/internal/lib/jwt"
	"github.com/magabrotheeeer/trading-signals/internal/lib/password"
	"github.com/magabrotheeeer/trading-signals/internal/models"
	services "github.com/magabrotheeeer/trading-signals/internal/services/auth"
	"github.com/magabrotheeeer/trading-signals/internal/storage"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) GetUser(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) UpdatePassword(ctx context.Context, uid, passwordHash string) error {
	return m.Called(ctx, uid, passwordHash).Error(0)
}

func (m *UserRepoMock) UpdateCredentials(ctx context.Context, uid, displayName, email string) error {
	return m.Called(ctx, uid, displayName, email).Error(0)
}

func (m *UserRepoMock) SetRole(ctx context.Context, uid, role string) error {
	return m.Called(ctx, uid, role).Error(0)
}

func newUser(t *testing.T, uid, email, raw, role string) *models.User {
	t.Helper()
	hash, err := password.GetHash(raw)
	require.NoError(t, err)
	return &models.User{UID: uid, Email: email, PasswordHash: hash, Role: role}
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(r *UserRepoMock)
		wantUID    string
		wantErr    error
	}{
		{
			name:     "successful registration normalizes email",
			email:    "  Trader@Example.COM ",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Email == "trader@example.com" &&
						u.PasswordHash != "" && u.PasswordHash != "password123" &&
						u.Role == models.RoleUser && u.PlanName == "" && u.PlanExpiry == nil &&
						u.DisplayName == "Trader"
				})).Return("uid-1", nil).Once()
			},
			wantUID: "uid-1",
		},
		{
			name:       "short password",
			email:      "trader@example.com",
			password:   "123",
			setupMocks: func(*UserRepoMock) {},
			wantErr:    password.ErrTooShort,
		},
		{
			name:       "password over bcrypt limit",
			email:      "trader@example.com",
			password:   strings.Repeat("a", password.MaxLength+8),
			setupMocks: func(*UserRepoMock) {},
			wantErr:    password.ErrTooLong,
		},
		{
			name:       "invalid email",
			email:      "not-an-email",
			password:   "password123",
			setupMocks: func(*UserRepoMock) {},
			wantErr:    services.ErrInvalidEmail,
		},
		{
			name:     "duplicate email",
			email:    "trader@example.com",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return("", fmt.Errorf("storage.CreateUser: %w", storage.ErrAlreadyExists)).Once()
			},
			wantErr: services.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMocks(repo)
			svc := services.NewAuthService(repo, customjwt.NewJWTMaker("secret", time.Hour))

			uid, err := svc.Register(context.Background(), tt.email, tt.password, " Trader ")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUID, uid)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	maker := customjwt.NewJWTMaker("secret", time.Hour)
	user := newUser(t, "uid-1", "trader@example.com", "password123", models.RoleAdmin)

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(r *UserRepoMock)
		wantErr    error
	}{
		{
			name:     "success",
			email:    "Trader@example.com",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "trader@example.com").Return(user, nil).Once()
			},
		},
		{
			name:     "wrong password",
			email:    "trader@example.com",
			password: "wrong-password",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "trader@example.com").Return(user, nil).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			email:    "ghost@example.com",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "ghost@example.com").
					Return(nil, fmt.Errorf("storage.GetUserByEmail: %w", storage.ErrNotFound)).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:     "database error",
			email:    "trader@example.com",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "trader@example.com").
					Return(nil, errors.New("connection refused")).Once()
			},
			wantErr: errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMocks(repo)
			svc := services.NewAuthService(repo, maker)

			res, err := svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.RoleAdmin, res.Role)
			assert.Equal(t, "uid-1", res.UserUID)

			claims, err := maker.ParseToken(res.Token)
			require.NoError(t, err)
			assert.Equal(t, "uid-1", claims.UserUID)
			assert.Equal(t, "trader@example.com", claims.Email)
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_ValidateToken_UsesCurrentRole(t *testing.T) {
	maker := customjwt.NewJWTMaker("secret", time.Hour)
	token, err := maker.GenerateToken("uid-1", "trader@example.com", models.RoleUser)
	require.NoError(t, err)

	repo := new(UserRepoMock)
	repo.On("GetUser", mock.Anything, "uid-1").
		Return(&models.User{UID: "uid-1", Email: "trader@example.com", Role: models.RoleAdmin}, nil).Once()
	svc := services.NewAuthService(repo, maker)

	user, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	_, err = svc.ValidateToken(context.Background(), "garbage")
	require.ErrorIs(t, err, customjwt.ErrInvalidToken)

	repo.On("GetUser", mock.Anything, "uid-1").Return(nil, storage.ErrNotFound).Once()
	_, err = svc.ValidateToken(context.Background(), token)
	require.ErrorIs(t, err, customjwt.ErrInvalidToken)
	repo.AssertExpectations(t)
}

func TestAuthService_ChangePassword(t *testing.T) {
	user := newUser(t, "uid-1", "trader@example.com", "old-password", models.RoleUser)

	tests := []struct {
		name       string
		current    string
		next       string
		setupMocks func(r *UserRepoMock)
		wantErr    error
	}{
		{
			name:    "success",
			current: "old-password",
			next:    "new-password",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUser", mock.Anything, "uid-1").Return(user, nil).Once()
				r.On("UpdatePassword", mock.Anything, "uid-1", mock.MatchedBy(func(h string) bool {
					return password.CompareHash(h, "new-password") == nil
				})).Return(nil).Once()
			},
		},
		{
			name:    "wrong current password",
			current: "nope-nope",
			next:    "new-password",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUser", mock.Anything, "uid-1").Return(user, nil).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:    "new password too short",
			current: "old-password",
			next:    "abc",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUser", mock.Anything, "uid-1").Return(user, nil).Once()
			},
			wantErr: password.ErrTooShort,
		},
		{
			name:    "user missing",
			current: "old-password",
			next:    "new-password",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUser", mock.Anything, "uid-1").Return(nil, storage.ErrNotFound).Once()
			},
			wantErr: services.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMocks(repo)
			svc := services.NewAuthService(repo, customjwt.NewJWTMaker("secret", time.Hour))

			err := svc.ChangePassword(context.Background(), "uid-1", tt.current, tt.next)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_UpdateCredentials(t *testing.T) {
	repo := new(UserRepoMock)
	svc := services.NewAuthService(repo, customjwt.NewJWTMaker("secret", time.Hour))

	repo.On("UpdateCredentials", mock.Anything, "uid-1", "New Name", "new@example.com").Return(nil).Once()
	require.NoError(t, svc.UpdateCredentials(context.Background(), "uid-1", " New Name ", "NEW@example.com"))

	repo.On("UpdateCredentials", mock.Anything, "uid-1", "New Name", "taken@example.com").
		Return(storage.ErrAlreadyExists).Once()
	err := svc.UpdateCredentials(context.Background(), "uid-1", "New Name", "taken@example.com")
	require.ErrorIs(t, err, services.ErrEmailTaken)

	err = svc.UpdateCredentials(context.Background(), "uid-1", "New Name", "")
	require.ErrorIs(t, err, services.ErrInvalidEmail)
	repo.AssertExpectations(t)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	t.Run("promotes existing user", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByEmail", mock.Anything, "boss@example.com").
			Return(&models.User{UID: "uid-9", Role: models.RoleUser}, nil).Once()
		repo.On("SetRole", mock.Anything, "uid-9", models.RoleAdmin).Return(nil).Once()

		uid, err := services.NewAuthService(repo, customjwt.NewJWTMaker("s", time.Hour)).
			EnsureAdmin(context.Background(), "boss@example.com", "")
		require.NoError(t, err)
		assert.Equal(t, "uid-9", uid)
		repo.AssertExpectations(t)
	})

	t.Run("creates missing admin", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByEmail", mock.Anything, "boss@example.com").Return(nil, storage.ErrNotFound).Once()
		repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Role == models.RoleAdmin && u.Email == "boss@example.com"
		})).Return("uid-10", nil).Once()

		uid, err := services.NewAuthService(repo, customjwt.NewJWTMaker("s", time.Hour)).
			EnsureAdmin(context.Background(), "boss@example.com", "admin-password")
		require.NoError(t, err)
		assert.Equal(t, "uid-10", uid)
		repo.AssertExpectations(t)
	})
}
