package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisRateLimiter_AllowsUnderLimit(t *testing.T) {
	_, client := setupTestRedis(t)
	limiter := NewWithClient(client, 5, time.Second)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "device-1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}
}

func TestRedisRateLimiter_DeniesOverLimit(t *testing.T) {
	_, client := setupTestRedis(t)
	limiter := NewWithClient(client, 3, time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "device-1")
		require.NoError(t, err)
		require.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "device-1")
	require.NoError(t, err)
	assert.False(t, allowed, "request over the limit should be denied")
}

func TestRedisRateLimiter_KeysAreIndependent(t *testing.T) {
	_, client := setupTestRedis(t)
	limiter := NewWithClient(client, 1, time.Second)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "device-1")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "device-1")
	require.NoError(t, err)
	assert.False(t, allowed)

	// A different device has its own budget.
	allowed, err = limiter.Allow(ctx, "device-2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_WindowSlides(t *testing.T) {
	mr, client := setupTestRedis(t)
	limiter := NewWithClient(client, 1, 100*time.Millisecond)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "device-1")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "device-1")
	require.NoError(t, err)
	require.False(t, allowed)

	// Entries score on wall-clock nanoseconds, so real waiting (not
	// miniredis FastForward) ages them out of the window.
	time.Sleep(150 * time.Millisecond)
	mr.FastForward(150 * time.Millisecond)

	allowed, err = limiter.Allow(ctx, "device-1")
	require.NoError(t, err)
	assert.True(t, allowed, "request after the window slid should be allowed")
}

func TestRedisRateLimiter_RedisDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	limiter := NewWithClient(client, 5, time.Second)
	mr.Close()

	_, err := limiter.Allow(context.Background(), "device-1")
	assert.Error(t, err)
}

func TestNewRedisRateLimiter_Disabled(t *testing.T) {
	limiter, err := NewRedisRateLimiter("", 1, time.Second, true)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		allowed, err := limiter.Allow(ctx, "device-1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	assert.NoError(t, limiter.Close())
}

func TestNewRedisRateLimiter_InvalidURL(t *testing.T) {
	_, err := NewRedisRateLimiter("not-a-valid-url", 1, time.Second, false)
	assert.Error(t, err)
}
