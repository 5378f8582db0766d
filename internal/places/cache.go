package places

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"garage-advisor/internal/common/database"
	"garage-advisor/internal/common/logger"
	"garage-advisor/internal/models"
)

const cacheKeyPrefix = "garage:subquery:"

// Cache stores successful sub-query results. Implementations must treat
// their own failures as misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]models.NormalizedPlace, bool)
	Set(ctx context.Context, key string, places []models.NormalizedPlace)
}

// NoopCache never hits.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]models.NormalizedPlace, bool) { return nil, false }

func (NoopCache) Set(context.Context, string, []models.NormalizedPlace) {}

// RedisCache keeps sub-query results in Redis as JSON.
type RedisCache struct {
	redis  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisCache(redis *database.RedisClient, ttl time.Duration, log logger.Logger) *RedisCache {
	return &RedisCache{
		redis:  redis,
		ttl:    ttl,
		logger: log.Component("places.cache"),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]models.NormalizedPlace, bool) {
	var out []models.NormalizedPlace
	if err := c.redis.GetJSON(ctx, key, &out); err != nil {
		if !errors.Is(err, database.ErrCacheMiss) {
			c.logger.Warn("cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return nil, false
	}
	return out, true
}

func (c *RedisCache) Set(ctx context.Context, key string, places []models.NormalizedPlace) {
	if places == nil {
		places = []models.NormalizedPlace{}
	}
	if err := c.redis.SetJSON(ctx, key, places, c.ttl); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// CacheKey derives a stable key from the source and the sub-query inputs.
func CacheKey(source models.SourceKind, parts ...string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.Join(parts, "\x00"))))
	return cacheKeyPrefix + string(source) + ":" + hex.EncodeToString(sum[:])
}
