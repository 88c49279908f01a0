package providers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/pkg/cache"
	"github.com/swingscan/swingscan/pkg/logger"
)

// CachedProvider wraps a Provider with the bar cache. Only successful
// responses are cached; errors always pass through so the scanner's
// fallback logic sees them.
type CachedProvider struct {
	inner  Provider
	cache  cache.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// WithCache wraps p so repeated requests within ttl hit the cache. The
// wrapper only advertises BatchProvider when the wrapped vendor does,
// so the scanner's capability checks see through it.
func WithCache(p Provider, c cache.Cache, ttl time.Duration, log *logger.Logger) Provider {
	cp := &CachedProvider{inner: p, cache: c, ttl: ttl, logger: log}
	if _, ok := p.(BatchProvider); ok {
		return &cachedBatchProvider{cp}
	}
	return cp
}

// Name implements Provider, delegating to the wrapped vendor.
func (c *CachedProvider) Name() string { return c.inner.Name() }

// DailyBars implements Provider.
func (c *CachedProvider) DailyBars(ctx context.Context, symbol string, limit int) ([]contracts.Bar, error) {
	key := c.barsKey(symbol, limit)

	var cached []contracts.Bar
	hit, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.logger.WithField("key", key).WithError(err).Warn("Cache read failed")
	} else if hit {
		return cached, nil
	}

	bars, err := c.inner.DailyBars(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, bars, c.ttl); err != nil {
		c.logger.WithField("key", key).WithError(err).Warn("Cache write failed")
	}
	return bars, nil
}

// Meta implements MetaProvider by delegating to the wrapped vendor.
// Profiles change rarely, so hits share the bar cache TTL.
func (c *CachedProvider) Meta(ctx context.Context, symbol string) (*contracts.TickerMeta, error) {
	mp, ok := c.inner.(MetaProvider)
	if !ok {
		return nil, fmt.Errorf("%s has no metadata endpoint", c.inner.Name())
	}

	key := cache.Key("meta", c.inner.Name(), symbol)

	var cached contracts.TickerMeta
	hit, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.logger.WithField("key", key).WithError(err).Warn("Cache read failed")
	} else if hit {
		return &cached, nil
	}

	meta, err := mp.Meta(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, meta, c.ttl); err != nil {
		c.logger.WithField("key", key).WithError(err).Warn("Cache write failed")
	}
	return meta, nil
}

// cachedBatchProvider adds the batch path for vendors that have one.
type cachedBatchProvider struct {
	*CachedProvider
}

// DailyBarsBatch implements BatchProvider. Cached symbols are served
// locally and only the misses go upstream.
func (c *cachedBatchProvider) DailyBarsBatch(ctx context.Context, symbols []string, limit int) (map[string][]contracts.Bar, error) {
	bp := c.inner.(BatchProvider)

	out := make(map[string][]contracts.Bar, len(symbols))
	var misses []string

	for _, symbol := range symbols {
		var cached []contracts.Bar
		hit, err := c.cache.Get(ctx, c.barsKey(symbol, limit), &cached)
		if err == nil && hit {
			out[symbol] = cached
			continue
		}
		misses = append(misses, symbol)
	}

	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := bp.DailyBarsBatch(ctx, misses, limit)
	if err != nil {
		return nil, err
	}

	for symbol, bars := range fetched {
		out[symbol] = bars
		if err := c.cache.Set(ctx, c.barsKey(symbol, limit), bars, c.ttl); err != nil {
			c.logger.WithField("symbol", symbol).WithError(err).Warn("Cache write failed")
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"provider": c.inner.Name(),
		"hits":     len(symbols) - len(misses),
		"misses":   len(misses),
	}).Debug("Batch cache lookup")

	return out, nil
}

func (c *CachedProvider) barsKey(symbol string, limit int) string {
	return cache.Key("bars", c.inner.Name(), symbol, "1d", strconv.Itoa(limit))
}
