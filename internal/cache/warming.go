package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/toyprojects/weather-proxy/internal/models"
	"github.com/toyprojects/weather-proxy/internal/observability"
)

// WeatherFetcher is implemented by the service layer to fetch current weather
// for a city with default units and language. Declared here to avoid a
// circular dependency on the service package.
type WeatherFetcher interface {
	FetchCity(ctx context.Context, city string) (models.WeatherRecord, error)
}

// CacheWarmer warms the cache by prefetching weather for a list of cities.
type CacheWarmer struct {
	fetcher WeatherFetcher
	logger  *zap.Logger
}

// NewCacheWarmer creates a CacheWarmer that uses the given fetcher and logger.
func NewCacheWarmer(fetcher WeatherFetcher, logger *zap.Logger) *CacheWarmer {
	return &CacheWarmer{fetcher: fetcher, logger: logger}
}

// Warm fetches weather for each city concurrently, populating the cache via
// the fetcher. Returns an error if any city failed (aggregated).
func (w *CacheWarmer) Warm(ctx context.Context, cities []string) error {
	start := time.Now()
	observability.CacheWarmingTotal.Inc()
	if w.logger != nil {
		w.logger.Info("warming cache", zap.Int("cities", len(cities)))
	}
	var wg sync.WaitGroup
	errCh := make(chan error, len(cities))
	for _, city := range cities {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := w.fetcher.FetchCity(ctx, city); err != nil {
				errCh <- fmt.Errorf("warm %s: %w", city, err)
			}
		}()
	}
	wg.Wait()
	close(errCh)
	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	if w.logger != nil {
		w.logger.Info("cache warming complete", zap.Int("cities", len(cities)), zap.Int("errors", len(errs)), zap.Duration("duration", time.Since(start)))
	}
	if len(errs) > 0 {
		return fmt.Errorf("cache warming: %v", errs)
	}
	return nil
}

// WarmPeriodic refreshes the cache at the given interval until ctx is done.
// The first refresh happens one interval in; the initial warm is the caller's
// explicit Warm call, so startup never fetches each city twice.
func (w *CacheWarmer) WarmPeriodic(ctx context.Context, cities []string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Warm(ctx, cities); err != nil && w.logger != nil {
				w.logger.Warn("periodic cache warm failed", zap.Error(err))
			}
		}
	}
}
