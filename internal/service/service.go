package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/toyprojects/weather-proxy/internal/cache"
	"github.com/toyprojects/weather-proxy/internal/client"
	"github.com/toyprojects/weather-proxy/internal/models"
	"github.com/toyprojects/weather-proxy/internal/observability"
	"github.com/toyprojects/weather-proxy/internal/ratelimit"
	"github.com/toyprojects/weather-proxy/internal/validation"
)

// DefaultPageSize is used for forecast pages when the requested size is out
// of range.
const DefaultPageSize = 8

// Query addresses one weather lookup. City and coordinates are mutually
// exclusive; ByCoords selects the coordinate path. Units and Lang may be
// blank; they are normalized before any I/O.
type Query struct {
	City     string
	Lat, Lon float64
	ByCoords bool
	Units    string
	Lang     string
}

// WeatherService orchestrates weather retrieval: validate, peek the cache,
// gate cache misses through the per-client rate limiter, fetch upstream,
// populate the cache. All state is injected at construction; the service owns
// no globals.
type WeatherService struct {
	client  client.WeatherClient
	cache   cache.Cache
	limiter *ratelimit.Limiter
	ttl     time.Duration
}

// NewWeatherService creates a WeatherService. ttl is the cache expiration for
// both namespaces. limiter may be nil to disable per-client rate limiting.
func NewWeatherService(client client.WeatherClient, cache cache.Cache, limiter *ratelimit.Limiter, ttl time.Duration) *WeatherService {
	return &WeatherService{
		client:  client,
		cache:   cache,
		limiter: limiter,
		ttl:     ttl,
	}
}

// loggerFromContext extracts a zap.Logger from request context if present.
// Returns nil if logger is not found or context is invalid.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// normalize validates the query and fills in normalized units and language.
// Fails fast, before any I/O.
func normalize(q Query) (Query, error) {
	if q.ByCoords {
		if err := validation.ValidateCoordinates(q.Lat, q.Lon); err != nil {
			return Query{}, err
		}
	} else {
		if err := validation.ValidateCity(q.City); err != nil {
			return Query{}, err
		}
	}
	q.Units = validation.NormalizeUnits(q.Units)
	q.Lang = validation.NormalizeLanguage(q.Lang)
	return q, nil
}

func params(q Query) client.Params {
	return client.Params{
		City:     q.City,
		Lat:      q.Lat,
		Lon:      q.Lon,
		ByCoords: q.ByCoords,
		Units:    q.Units,
		Lang:     q.Lang,
	}
}

// FetchCurrent retrieves current weather for the query without consulting the
// rate limiter. Cache-aside: peek, fetch on miss, populate.
func (s *WeatherService) FetchCurrent(ctx context.Context, q Query) (models.WeatherRecord, error) {
	return s.fetchCurrent(ctx, "", q)
}

// FetchCurrentWithRateLimit is FetchCurrent gated by the client identity's
// token bucket. The bucket is consulted only on a cache miss: cached responses
// impose no upstream cost and are never rate limited.
func (s *WeatherService) FetchCurrentWithRateLimit(ctx context.Context, identity string, q Query) (models.WeatherRecord, error) {
	return s.fetchCurrent(ctx, identity, q)
}

func (s *WeatherService) fetchCurrent(ctx context.Context, identity string, q Query) (models.WeatherRecord, error) {
	q, err := normalize(q)
	if err != nil {
		return models.WeatherRecord{}, err
	}
	key := cacheKey(q)
	logger := loggerFromContext(ctx)
	observability.RecordWeatherQuery(q.City)

	cached, ok, cacheErr := s.cache.GetCurrent(ctx, key)
	if cacheErr != nil {
		observability.CacheErrorsTotal.WithLabelValues("get").Inc()
	} else if ok {
		observability.CacheHitsTotal.WithLabelValues("current").Inc()
		if logger != nil {
			logger.Debug("cache hit", zap.String("key", key))
		}
		return cached, nil
	}

	if err := s.consumeToken(identity, logger); err != nil {
		return models.WeatherRecord{}, err
	}

	if logger != nil {
		logger.Debug("cache miss, fetching upstream", zap.String("key", key))
	}
	record, err := s.client.FetchCurrent(ctx, params(q))
	if err != nil {
		return models.WeatherRecord{}, fmt.Errorf("fetch current weather: %w", err)
	}

	if setErr := s.cache.SetCurrent(ctx, key, record, s.ttl); setErr != nil {
		observability.CacheErrorsTotal.WithLabelValues("set").Inc()
		if logger != nil {
			logger.Warn("cache set failed", zap.String("key", key), zap.Error(setErr))
		}
	}
	return record, nil
}

// FetchForecast retrieves the capped forecast list for the query, in
// chronological order. Same cache-aside flow as FetchCurrent, in the forecast
// namespace; forecast reads are not rate limited.
func (s *WeatherService) FetchForecast(ctx context.Context, q Query) ([]models.WeatherRecord, error) {
	q, err := normalize(q)
	if err != nil {
		return nil, err
	}
	key := cacheKey(q)
	logger := loggerFromContext(ctx)

	cached, ok, cacheErr := s.cache.GetForecast(ctx, key)
	if cacheErr != nil {
		observability.CacheErrorsTotal.WithLabelValues("get").Inc()
	} else if ok {
		observability.CacheHitsTotal.WithLabelValues("forecast").Inc()
		if logger != nil {
			logger.Debug("cache hit", zap.String("key", key))
		}
		return cached, nil
	}

	if logger != nil {
		logger.Debug("cache miss, fetching upstream", zap.String("key", key))
	}
	records, err := s.client.FetchForecast(ctx, params(q))
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}

	if setErr := s.cache.SetForecast(ctx, key, records, s.ttl); setErr != nil {
		observability.CacheErrorsTotal.WithLabelValues("set").Inc()
		if logger != nil {
			logger.Warn("cache set failed", zap.String("key", key), zap.Error(setErr))
		}
	}
	return records, nil
}

// FetchForecastPaged returns one page of the forecast, sorted ascending by
// observation time. page clamps to >= 0 and size to >= 1, defaulting to
// page 0 / size DefaultPageSize when out of range; a page beyond the data
// yields empty content with accurate totals.
func (s *WeatherService) FetchForecastPaged(ctx context.Context, q Query, page, size int) (models.Page, error) {
	records, err := s.FetchForecast(ctx, q)
	if err != nil {
		return models.Page{}, err
	}

	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = DefaultPageSize
	}

	sorted := make([]models.WeatherRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ObservedAt < sorted[j].ObservedAt
	})

	return models.NewPage(sorted, page, size), nil
}

// FetchCity retrieves current weather for a city with default units and
// language. Used by the cache warmer.
func (s *WeatherService) FetchCity(ctx context.Context, city string) (models.WeatherRecord, error) {
	return s.FetchCurrent(ctx, Query{City: city})
}

// consumeToken applies the rate limiter for the identity, if both are
// configured. Empty identity means the caller opted out of rate limiting.
func (s *WeatherService) consumeToken(identity string, logger *zap.Logger) error {
	if s.limiter == nil || identity == "" {
		return nil
	}
	if s.limiter.Allow(identity) {
		return nil
	}
	observability.RateLimitDeniedTotal.Inc()
	if logger != nil {
		logger.Debug("rate limit denied", zap.String("identity", identity))
	}
	return ratelimit.ErrRateLimited
}
