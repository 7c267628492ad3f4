package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student-records/internal/cache"
)

type report struct {
	Year  int      `json:"year"`
	Names []string `json:"names"`
}

func newRedisCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisCache(client, "test:"), srv
}

func TestRedisCache_RoundTrip(t *testing.T) {
	c, srv := newRedisCache(t)
	ctx := context.Background()

	var got report
	found, err := c.Get(ctx, "top", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "top", report{Year: 2024, Names: []string{"a", "b"}}, time.Minute))
	assert.True(t, srv.Exists("test:top"))
	assert.Equal(t, time.Minute, srv.TTL("test:top"))

	found, err = c.Get(ctx, "top", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, report{Year: 2024, Names: []string{"a", "b"}}, got)

	srv.FastForward(2 * time.Minute)
	found, err = c.Get(ctx, "top", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_CorruptValue(t *testing.T) {
	c, srv := newRedisCache(t)
	require.NoError(t, srv.Set("test:broken", "{not json"))

	var got report
	found, err := c.Get(context.Background(), "broken", &got)
	require.Error(t, err)
	assert.False(t, found)
}

func TestRedisCache_ServerDown(t *testing.T) {
	c, srv := newRedisCache(t)
	srv.Close()

	var got report
	_, err := c.Get(context.Background(), "top", &got)
	require.Error(t, err)
	require.Error(t, c.Set(context.Background(), "top", report{}, time.Minute))
}

func TestConnect(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := cache.Connect(context.Background(), "redis://"+srv.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestNoop(t *testing.T) {
	var c cache.Cache = cache.Noop{}
	require.NoError(t, c.Set(context.Background(), "k", 1, time.Minute))
	found, err := c.Get(context.Background(), "k", new(int))
	require.NoError(t, err)
	assert.False(t, found)
}
