package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sala-api/internal/observability"
)

// jsonCache stores JSON encoded values in redis. A nil client disables it.
type jsonCache struct {
	name   string
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func newJSONCache(name string, client *redis.Client, ttl time.Duration, logger zerolog.Logger) jsonCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return jsonCache{name: name, redis: client, ttl: ttl, logger: logger}
}

func (c jsonCache) get(ctx context.Context, key string, dest interface{}) bool {
	if c.redis == nil {
		return false
	}

	payload, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		observability.CacheLookups().WithLabelValues(c.name, "miss").Inc()
		return false
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache payload corrupt")
		observability.CacheLookups().WithLabelValues(c.name, "miss").Inc()
		return false
	}

	observability.CacheLookups().WithLabelValues(c.name, "hit").Inc()
	return true
}

func (c jsonCache) set(ctx context.Context, key string, value interface{}) {
	if c.redis == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
