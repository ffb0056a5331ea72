package redis_test

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/db-assistant/internal/config"
	"github.com/Rrens/db-assistant/internal/repository/redis"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()

	host := os.Getenv("DBAGENT_TEST_REDIS_HOST")
	if host == "" {
		t.Skip("DBAGENT_TEST_REDIS_HOST not set - run as integration test")
	}
	port := 6379
	if p := os.Getenv("DBAGENT_TEST_REDIS_PORT"); p != "" {
		n, err := strconv.Atoi(p)
		require.NoError(t, err)
		port = n
	}

	client, err := redis.NewClient(context.Background(), config.RedisConfig{Host: host, Port: port})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRateLimiter_Allow(t *testing.T) {
	client := newTestClient(t)
	limiter := redis.NewRateLimiter(client, 2)
	ctx := context.Background()
	key := "test-" + uuid.NewString()
	t.Cleanup(func() { limiter.Reset(ctx, key) })

	allowed, remaining, _, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)

	allowed, remaining, _, err = limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 0, remaining)

	allowed, remaining, reset, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.False(t, reset.IsZero())
}

func TestNewClient_Unreachable(t *testing.T) {
	_, err := redis.NewClient(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.ErrorContains(t, err, "failed to connect to Redis")
}
