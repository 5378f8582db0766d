package places

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	apperrors "garage-advisor/internal/common/errors"
	"garage-advisor/internal/common/logger"
	"garage-advisor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// ==========================
// Helpers
// ==========================

func staticQuery(label string, places ...models.NormalizedPlace) subQuery {
	return subQuery{
		upstream: "fake",
		label:    label,
		run: func(context.Context) ([]models.NormalizedPlace, error) {
			return places, nil
		},
	}
}

func failingQuery(label string, err error) subQuery {
	return subQuery{
		upstream: "fake",
		label:    label,
		run: func(context.Context) ([]models.NormalizedPlace, error) {
			return nil, err
		},
	}
}

type memoryCache struct {
	entries map[string][]models.NormalizedPlace
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]models.NormalizedPlace{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]models.NormalizedPlace, bool) {
	p, ok := c.entries[key]
	return p, ok
}

func (c *memoryCache) Set(_ context.Context, key string, places []models.NormalizedPlace) {
	c.sets++
	c.entries[key] = places
}

// ==========================
// Tests
// ==========================

func TestFanOut_PartialFailureReturnsUnion(t *testing.T) {
	defer goleak.VerifyNone(t)

	log, logs := logger.NewObservedLogger()
	f := newFanOut(models.SourceOSM, FanOutOptions{MaxConcurrency: 2}, log)

	got, err := f.run(context.Background(), []subQuery{
		staticQuery("q1", models.NormalizedPlace{ID: "a"}),
		failingQuery("q2", errors.New("connection refused")),
		staticQuery("q3", models.NormalizedPlace{ID: "b"}),
		staticQuery("q4", models.NormalizedPlace{ID: "c"}),
	})

	require.NoError(t, err)
	ids := []string{}
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, 1, logs.FilterMessage("sub-query failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("partial upstream failure").Len())
}

func TestFanOut_AllFailed(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFanOut(models.SourceGoogle, FanOutOptions{}, logger.NewNoOpLogger())
	got, err := f.run(context.Background(), []subQuery{
		failingQuery("q1", errors.New("dial tcp: no route to host")),
		failingQuery("q2", &googleStatusError{Status: apperrors.UpstreamStatusQuota}),
	})

	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUpstreamUnavailable))
	assert.Equal(t, apperrors.ErrCodeUpstreamUnavailable, apperrors.CodeOf(err))
}

func TestFanOut_AllFailedCarriesUpstreamStatus(t *testing.T) {
	f := newFanOut(models.SourceGoogle, FanOutOptions{MaxConcurrency: 1}, logger.NewNoOpLogger())
	_, err := f.run(context.Background(), []subQuery{
		failingQuery("q1", &googleStatusError{Status: apperrors.UpstreamStatusDenied}),
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.MsgMissingAPIKey, apperrors.UserMessage(err))
}

func TestFanOut_SubQueryTimeoutIsAFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFanOut(models.SourceOSM, FanOutOptions{Timeout: 20 * time.Millisecond}, logger.NewNoOpLogger())
	slow := subQuery{
		upstream: "fake",
		label:    "slow",
		run: func(ctx context.Context) ([]models.NormalizedPlace, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	got, err := f.run(context.Background(), []subQuery{slow, staticQuery("fast", models.NormalizedPlace{ID: "x"})})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].ID)

	_, err = f.run(context.Background(), []subQuery{slow})
	require.Error(t, err)
	assert.Equal(t, apperrors.MsgTimeout, apperrors.UserMessage(err))
}

func TestFanOut_RespectsConcurrencyLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	var inFlight, peak int32
	q := subQuery{
		upstream: "fake",
		run: func(context.Context) ([]models.NormalizedPlace, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return []models.NormalizedPlace{}, nil
		},
	}

	f := newFanOut(models.SourceOSM, FanOutOptions{MaxConcurrency: 2}, logger.NewNoOpLogger())
	_, err := f.run(context.Background(), []subQuery{q, q, q, q, q, q})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestFanOut_CancelledParent(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newFanOut(models.SourceOSM, FanOutOptions{}, logger.NewNoOpLogger())
	_, err := f.run(ctx, []subQuery{{
		upstream: "fake",
		run: func(ctx context.Context) ([]models.NormalizedPlace, error) {
			return nil, ctx.Err()
		},
	}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFanOut_UsesCache(t *testing.T) {
	cache := newMemoryCache()
	var calls int32
	q := subQuery{
		upstream: "fake",
		cacheKey: CacheKey(models.SourceOSM, "fake", "q"),
		run: func(context.Context) ([]models.NormalizedPlace, error) {
			atomic.AddInt32(&calls, 1)
			return []models.NormalizedPlace{{ID: "cached"}}, nil
		},
	}

	f := newFanOut(models.SourceOSM, FanOutOptions{Cache: cache}, logger.NewNoOpLogger())
	for i := 0; i < 3; i++ {
		got, err := f.run(context.Background(), []subQuery{q})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "cached", got[0].ID)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, cache.sets)
}

func TestFanOut_EmptyQueries(t *testing.T) {
	f := newFanOut(models.SourceOSM, FanOutOptions{}, logger.NewNoOpLogger())
	got, err := f.run(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
