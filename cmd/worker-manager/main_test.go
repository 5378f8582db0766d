package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"garage-advisor/internal/common/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestConnectRedis_Success(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := connectRedis(context.Background(), func() (*database.RedisClient, error) {
		return database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})), nil
	}, 3, time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
}

func TestConnectRedis_ClosesClientsWhosePingFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	var opened []*database.RedisClient
	client, err := connectRedis(context.Background(), func() (*database.RedisClient, error) {
		c := database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1}))
		opened = append(opened, c)
		return c, nil
	}, 3, time.Millisecond, zap.NewNop())

	require.Error(t, err)
	assert.Nil(t, client)
	require.Len(t, opened, 3)
	for _, c := range opened {
		assert.True(t, errors.Is(c.Ping(context.Background()), redis.ErrClosed), "client left open")
	}
}

func TestConnectRedis_OpenError(t *testing.T) {
	calls := 0
	_, err := connectRedis(context.Background(), func() (*database.RedisClient, error) {
		calls++
		return nil, errors.New("redis address is empty")
	}, 2, time.Millisecond, zap.NewNop())

	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "Redis connection failed after 2 attempts")
}
