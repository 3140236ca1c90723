package paraglidingweather

import (
	"context"
	"sync"
	"time"

	"paraglide-stack/internal/models"
	"paraglide-stack/shared/monitoring"

	"github.com/jonboulle/clockwork"
)

// CachedForecaster wraps a Forecaster with a per-location TTL cache. Only
// successful fetches are cached so a failed location is retried next time.
type CachedForecaster struct {
	inner   Forecaster
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *monitoring.Metrics

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	forecast *Forecast
	expires  time.Time
}

func NewCachedForecaster(inner Forecaster, ttl time.Duration, clock clockwork.Clock, metrics *monitoring.Metrics) *CachedForecaster {
	return &CachedForecaster{
		inner:   inner,
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
		entries: make(map[string]cacheEntry),
	}
}

func (c *CachedForecaster) Forecast(ctx context.Context, loc models.Location) (*Forecast, error) {
	f, _, err := c.Lookup(ctx, loc)
	return f, err
}

// Lookup returns the forecast and whether it was served from the cache.
func (c *CachedForecaster) Lookup(ctx context.Context, loc models.Location) (*Forecast, bool, error) {
	key := loc.Key()
	if f, ok := c.get(key); ok {
		c.count("hit")
		return f, true, nil
	}
	c.count("miss")

	f, err := c.inner.Forecast(ctx, loc)
	if err != nil {
		return nil, false, err
	}
	if c.ttl > 0 {
		c.put(key, f)
	}
	return f, false, nil
}

// Len returns the number of unexpired entries.
func (c *CachedForecaster) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	n := 0
	for _, e := range c.entries {
		if now.Before(e.expires) {
			n++
		}
	}
	return n
}

func (c *CachedForecaster) get(key string) (*Forecast, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.clock.Now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.forecast, true
}

func (c *CachedForecaster) put(key string, f *Forecast) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{forecast: f, expires: c.clock.Now().Add(c.ttl)}
}

func (c *CachedForecaster) count(result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.ForecastCache.WithLabelValues(result).Inc()
}
