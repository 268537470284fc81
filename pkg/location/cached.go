package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/imgmapon/pkg/cache"
	"github.com/rs/zerolog"
)

// CachedProvider serves successful answers of the wrapped provider from a
// cache. Failures are never cached, and a broken cache only costs a lookup.
type CachedProvider[Q any, R any] struct {
	next   Provider[Q, R]
	store  cache.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// WithCache wraps every provider in the chain.
func WithCache[Q any, R any](providers []Provider[Q, R], store cache.Cache, ttl time.Duration, logger zerolog.Logger) []Provider[Q, R] {
	if store == nil {
		return providers
	}

	wrapped := make([]Provider[Q, R], 0, len(providers))
	for _, p := range providers {
		wrapped = append(wrapped, &CachedProvider[Q, R]{next: p, store: store, ttl: ttl, logger: logger})
	}
	return wrapped
}

func (c *CachedProvider[Q, R]) Name() string { return c.next.Name() }

func (c *CachedProvider[Q, R]) Call(ctx context.Context, query Q) (R, error) {
	key := fmt.Sprintf("imgmapon:%s:%v", c.next.Name(), query)

	if raw, err := c.store.Get(ctx, key); err == nil {
		var cached R
		if err := json.Unmarshal(raw, &cached); err == nil {
			c.logger.Debug().Str("provider", c.next.Name()).Str("key", key).Msg("Serving provider result from cache")
			return cached, nil
		}
		c.logger.Warn().Str("key", key).Msg("Discarding undecodable cache entry")
	} else if !errors.Is(err, cache.ErrMiss) {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache lookup failed")
	}

	result, err := c.next.Call(ctx, query)
	if err != nil {
		return result, err
	}

	if raw, err := json.Marshal(result); err == nil {
		if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("Failed to store provider result")
		}
	}
	return result, nil
}
