package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"garage-advisor/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisClient_JSONRoundTrip(t *testing.T) {
	client, mr := setupRedis(t)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.SetJSON(ctx, "garage:test", payload{Name: "Al Quoz Auto"}, time.Minute))

	var got payload
	require.NoError(t, client.GetJSON(ctx, "garage:test", &got))
	assert.Equal(t, "Al Quoz Auto", got.Name)

	mr.FastForward(2 * time.Minute)
	err := client.GetJSON(ctx, "garage:test", &got)
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestRedisClient_Del(t *testing.T) {
	client, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, client.SetJSON(ctx, "k", 1, 0))
	require.NoError(t, client.Del(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)

	c, err := NewRedis(config.RedisConfig{Address: "localhost:6379"})
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}
