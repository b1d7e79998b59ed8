package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/trading-signals/internal/config"
	"github.com/magabrotheeeer/trading-signals/internal/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestSetAndGet(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	expiry := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	expected := models.PlanStatus{HasPlan: true, PlanName: "1 Month Access", ExpiresAt: &expiry}
	require.NoError(t, c.Set(ctx, PlanStatusKey("u1"), expected, time.Minute))

	var actual models.PlanStatus
	found, err := c.Get(ctx, PlanStatusKey("u1"), &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected.PlanName, actual.PlanName)
	assert.True(t, expiry.Equal(*actual.ExpiresAt))
}

func TestGetNotFound(t *testing.T) {
	c, _ := setupTestCache(t)

	var out models.PlanStatus
	found, err := c.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExpiration(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "value", 60*time.Second))
	mr.FastForward(61 * time.Second)

	var out string
	found, err := c.Get(ctx, "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, c.Invalidate(ctx, "a", "b"))
	require.NoError(t, c.Invalidate(ctx))

	var out int
	found, err := c.Get(ctx, "a", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Db.Set(ctx, "bad", "not-json", time.Minute).Err())

	var out models.PlanStatus
	found, err := c.Get(ctx, "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	c, err := InitServer(context.Background(), config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
		DialTimeout:  200 * time.Millisecond,
	})
	assert.Nil(t, c)
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	c, mr := setupTestCache(t)
	require.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}
