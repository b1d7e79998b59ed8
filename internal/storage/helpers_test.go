package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/trading-signals/internal/migrations"
	"github.com/magabrotheeeer/trading-signals/internal/models"
)

// setupStorage поднимает PostgreSQL в контейнере и накатывает миграции.
func setupStorage(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("signals"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	root, err := filepath.Abs("../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(s.DB, filepath.Join(root, "migrations")))
	require.NoError(t, s.Ready(ctx))

	return s
}

// testDataFactory создаёт тестовые записи напрямую через хранилище.
type testDataFactory struct {
	t *testing.T
	s *Storage
}

func newTestDataFactory(t *testing.T, s *Storage) *testDataFactory {
	return &testDataFactory{t: t, s: s}
}

func (f *testDataFactory) user(email, role string) *models.User {
	f.t.Helper()
	uid, err := f.s.CreateUser(context.Background(), models.User{
		Email:        email,
		PasswordHash: "hash",
		DisplayName:  "Trader",
		Role:         role,
	})
	require.NoError(f.t, err)
	u, err := f.s.GetUser(context.Background(), uid)
	require.NoError(f.t, err)
	return u
}

func (f *testDataFactory) payment(u *models.User, reference, status string, paidAt, expiry *time.Time) *models.Payment {
	f.t.Helper()
	p := models.Payment{
		UserUID:    u.UID,
		Email:      u.Email,
		Reference:  reference,
		PlanName:   "1 Month Access",
		Amount:     7_800_000,
		Duration:   "30 days",
		Status:     status,
		PaidAt:     paidAt,
		PlanExpiry: expiry,
	}
	id, err := f.s.CreatePayment(context.Background(), p)
	require.NoError(f.t, err)
	got, err := f.s.GetPayment(context.Background(), id)
	require.NoError(f.t, err)
	return got
}

func ptr[T any](v T) *T {
	return &v
}
