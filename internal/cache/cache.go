package cache

import (
	"context"
	"sync"
	"time"

	"github.com/toyprojects/weather-proxy/internal/models"
)

// Cache is a time-expiring store for normalized weather results. Current
// weather and forecast lists live in separate namespaces; keys never collide
// across them even when the underlying request parameters match.
//
// Get methods are pure peeks: they never trigger a fetch and do not
// distinguish "never cached" from "expired" (both are a miss). Set overwrites
// any existing entry and resets its TTL clock.
type Cache interface {
	GetCurrent(ctx context.Context, key string) (models.WeatherRecord, bool, error)
	SetCurrent(ctx context.Context, key string, value models.WeatherRecord, ttl time.Duration) error
	GetForecast(ctx context.Context, key string) ([]models.WeatherRecord, bool, error)
	SetForecast(ctx context.Context, key string, value []models.WeatherRecord, ttl time.Duration) error
}

// BoundedCache implements Cache with two size-bounded in-memory stores, one
// per namespace. Expiry is lazy (checked on access); when a store is full,
// inserting a new key evicts expired entries first, then the entry closest to
// expiry, so the cache never grows past maxEntries per namespace.
type BoundedCache struct {
	current  *store[models.WeatherRecord]
	forecast *store[[]models.WeatherRecord]
}

// NewBoundedCache creates a BoundedCache holding at most maxEntries entries
// per namespace.
func NewBoundedCache(maxEntries int) *BoundedCache {
	return &BoundedCache{
		current:  newStore[models.WeatherRecord](maxEntries),
		forecast: newStore[[]models.WeatherRecord](maxEntries),
	}
}

func (c *BoundedCache) GetCurrent(ctx context.Context, key string) (models.WeatherRecord, bool, error) {
	v, ok := c.current.get(key)
	return v, ok, nil
}

func (c *BoundedCache) SetCurrent(ctx context.Context, key string, value models.WeatherRecord, ttl time.Duration) error {
	c.current.set(key, value, ttl)
	return nil
}

func (c *BoundedCache) GetForecast(ctx context.Context, key string) ([]models.WeatherRecord, bool, error) {
	v, ok := c.forecast.get(key)
	return v, ok, nil
}

func (c *BoundedCache) SetForecast(ctx context.Context, key string, value []models.WeatherRecord, ttl time.Duration) error {
	c.forecast.set(key, value, ttl)
	return nil
}

// store is a mutex-guarded TTL map with a maximum entry count.
type store[V any] struct {
	mu         sync.Mutex
	maxEntries int
	data       map[string]entry[V]
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func newStore[V any](maxEntries int) *store[V] {
	return &store[V]{
		maxEntries: maxEntries,
		data:       make(map[string]entry[V]),
	}
}

func (s *store[V]) get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		delete(s.data, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (s *store[V]) set(key string, value V, ttl time.Duration) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; !exists && s.maxEntries > 0 && len(s.data) >= s.maxEntries {
		s.evict(now)
	}
	s.data[key] = entry[V]{value: value, expiresAt: now.Add(ttl)}
}

// evict removes expired entries; if none were expired, it removes the entry
// closest to expiry. With a fixed TTL that is the oldest insertion. Caller
// holds the lock.
func (s *store[V]) evict(now time.Time) {
	removed := false
	for k, e := range s.data {
		if now.After(e.expiresAt) {
			delete(s.data, k)
			removed = true
		}
	}
	if removed {
		return
	}
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range s.data {
		if first || e.expiresAt.Before(oldest) {
			oldestKey, oldest = k, e.expiresAt
			first = false
		}
	}
	if !first {
		delete(s.data, oldestKey)
	}
}

// len reports the entry count. Test helper.
func (s *store[V]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
