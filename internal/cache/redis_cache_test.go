package cache

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server when TEST_REDIS_URL is set.
func newTestCache(t *testing.T) CacheService {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	prefix := "test:" + uuid.NewString() + ":"
	return NewRedisCache(client, prefix, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type cachedOverview struct {
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
}

func TestRedisCache_RoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var got cachedOverview
	assert.ErrorIs(t, c.Get(ctx, "overview:u1", &got), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "overview:u1", cachedOverview{Total: 4, Accuracy: 75}, time.Minute))
	require.NoError(t, c.Get(ctx, "overview:u1", &got))
	assert.Equal(t, cachedOverview{Total: 4, Accuracy: 75}, got)

	require.NoError(t, c.Delete(ctx, "overview:u1"))
	assert.ErrorIs(t, c.Get(ctx, "overview:u1", &got), ErrCacheMiss)
}

func TestRedisCache_DeletePattern(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	for _, key := range []string{"perf:u1:overview", "perf:u1:export", "perf:u2:overview"} {
		require.NoError(t, c.Set(ctx, key, 1, time.Minute))
	}

	require.NoError(t, c.DeletePattern(ctx, "perf:u1:*"))

	var v int
	assert.ErrorIs(t, c.Get(ctx, "perf:u1:overview", &v), ErrCacheMiss)
	assert.ErrorIs(t, c.Get(ctx, "perf:u1:export", &v), ErrCacheMiss)
	assert.NoError(t, c.Get(ctx, "perf:u2:overview", &v))
}
