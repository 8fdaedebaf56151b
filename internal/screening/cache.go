package screening

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"kycgate/internal/screening/metrics"
)

// Fingerprinter derives a stable, PII-free cache key component.
type Fingerprinter interface {
	Of(parts ...string) string
}

// CachedProvider memoizes another provider's results in Redis. Cache errors
// never fail a screening; the wrapped provider is called instead.
type CachedProvider struct {
	next        Provider
	redis       redis.Cmdable
	fingerprint Fingerprinter
	ttl         time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// CacheOption configures a CachedProvider.
type CacheOption func(*CachedProvider)

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedProvider) { c.logger = logger }
}

func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *CachedProvider) { c.metrics = m }
}

// NewCachedProvider wraps next with a Redis cache.
func NewCachedProvider(next Provider, client redis.Cmdable, fp Fingerprinter, ttl time.Duration, opts ...CacheOption) *CachedProvider {
	c := &CachedProvider{
		next:        next,
		redis:       client,
		fingerprint: fp,
		ttl:         ttl,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedProvider) Name() string { return c.next.Name() }

func (c *CachedProvider) key(subject Subject) string {
	return "screening:" + c.next.Name() + ":" + c.fingerprint.Of(subject.FirstName, subject.LastName, subject.DateOfBirth, subject.Nationality)
}

// Screen returns a cached result when present, otherwise screens and caches.
func (c *CachedProvider) Screen(ctx context.Context, subject Subject) (Result, error) {
	key := c.key(subject)

	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached Result
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			c.metrics.IncCacheHit()
			return cached, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt screening cache entry", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.WarnContext(ctx, "screening cache read failed", "error", err)
	}
	c.metrics.IncCacheMiss()

	start := time.Now()
	res, err := c.next.Screen(ctx, subject)
	c.metrics.ObserveScreenLatency(c.next.Name(), time.Since(start))
	if err != nil {
		return Result{}, err
	}

	if body, err := json.Marshal(res); err == nil {
		if err := c.redis.Set(ctx, key, body, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "screening cache write failed", "error", err)
		}
	}
	return res, nil
}
