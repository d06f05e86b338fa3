package cache

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/toyprojects/weather-proxy/internal/models"
)

// Namespace prefixes keep current and forecast keys from colliding even when
// the underlying request parameters are identical.
const (
	currentPrefix  = "current:"
	forecastPrefix = "forecast:"
)

// memcacheKey builds the namespaced memcached key. Canonical keys may contain
// spaces (multi-word cities like "new york"), which memcached rejects, so the
// key is percent-encoded before prefixing. The encoding is deterministic, so
// logically identical requests still address the same entry.
func memcacheKey(prefix, key string) string {
	return prefix + url.QueryEscape(key)
}

// MemcachedCache implements Cache using memcached. Size bounding is delegated
// to memcached's own eviction; TTL is enforced as a relative expiration.
type MemcachedCache struct {
	client *memcache.Client
}

// NewMemcachedCache creates a MemcachedCache. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and maxIdleConns
// configure the client; both use package defaults if zero.
func NewMemcachedCache(addrs string, timeout time.Duration, maxIdleConns int) (*MemcachedCache, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedCache{client: client}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// GetCurrent implements Cache.GetCurrent. Returns false, nil on cache miss.
func (c *MemcachedCache) GetCurrent(ctx context.Context, key string) (models.WeatherRecord, bool, error) {
	var rec models.WeatherRecord
	ok, err := c.get(ctx, memcacheKey(currentPrefix, key), &rec)
	return rec, ok, err
}

// SetCurrent implements Cache.SetCurrent.
func (c *MemcachedCache) SetCurrent(ctx context.Context, key string, value models.WeatherRecord, ttl time.Duration) error {
	return c.set(ctx, memcacheKey(currentPrefix, key), value, ttl)
}

// GetForecast implements Cache.GetForecast. Returns false, nil on cache miss.
func (c *MemcachedCache) GetForecast(ctx context.Context, key string) ([]models.WeatherRecord, bool, error) {
	var recs []models.WeatherRecord
	ok, err := c.get(ctx, memcacheKey(forecastPrefix, key), &recs)
	return recs, ok, err
}

// SetForecast implements Cache.SetForecast.
func (c *MemcachedCache) SetForecast(ctx context.Context, key string, value []models.WeatherRecord, ttl time.Duration) error {
	return c.set(ctx, memcacheKey(forecastPrefix, key), value, ttl)
}

func (c *MemcachedCache) get(ctx context.Context, key string, out any) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	item, err := c.client.Get(key)
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(item.Value, out); err != nil {
		return false, err
	}
	return true, nil
}

func (c *MemcachedCache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	expSec := int32(ttl.Seconds())
	const maxRelativeExp = 30 * 24 * 60 * 60 // 30 days
	if expSec <= 0 || expSec > maxRelativeExp {
		expSec = 600 // fallback to the default TTL if invalid
	}
	return c.client.Set(&memcache.Item{
		Key:        key,
		Value:      raw,
		Expiration: expSec,
	})
}

// Ping checks if memcached is reachable. Used for health checks.
func (c *MemcachedCache) Ping() error {
	return c.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (c *MemcachedCache) Close() error {
	return c.client.Close()
}
