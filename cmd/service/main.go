package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/toyprojects/weather-proxy/internal/cache"
	"github.com/toyprojects/weather-proxy/internal/client"
	"github.com/toyprojects/weather-proxy/internal/config"
	httphandler "github.com/toyprojects/weather-proxy/internal/http"
	"github.com/toyprojects/weather-proxy/internal/lifecycle"
	"github.com/toyprojects/weather-proxy/internal/observability"
	"github.com/toyprojects/weather-proxy/internal/ratelimit"
	"github.com/toyprojects/weather-proxy/internal/service"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	weatherClient, err := client.NewOpenWeatherClient(
		cfg.WeatherAPIKey,
		cfg.WeatherAPIURL,
		cfg.ForecastAPIURL,
		cfg.WeatherAPITimeout,
	)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}

	var cacheSvc cache.Cache
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		memcacheCloser = mc
		cacheSvc = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		cacheSvc = cache.NewBoundedCache(cfg.CacheMaxEntries)
		logger.Info("cache backend: in_memory", zap.Int("max_entries", cfg.CacheMaxEntries))
	}

	limiter := ratelimit.New(cfg.RateLimitCapacity, cfg.RateLimitWindow)
	observability.RegisterRateLimitIdentityGauge(limiter.Size)

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go limiter.Run(sweepCtx, cfg.RateLimitSweepInterval, time.Duration(cfg.RateLimitIdleFactor)*cfg.RateLimitWindow)

	weatherService := service.NewWeatherService(weatherClient, cacheSvc, limiter, cfg.CacheTTL)

	if len(cfg.TrackedCities) > 0 {
		observability.SetTrackedCities(cfg.TrackedCities)
	}

	if cfg.WarmCache && len(cfg.TrackedCities) > 0 {
		warmer := cache.NewCacheWarmer(weatherService, logger)
		warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := warmer.Warm(warmCtx, cfg.TrackedCities); err != nil {
			logger.Warn("cache warming failed", zap.Error(err))
		}
		warmCancel()
		if cfg.WarmInterval > 0 {
			go func() {
				if err := warmer.WarmPeriodic(context.Background(), cfg.TrackedCities, cfg.WarmInterval); err != nil && err != context.Canceled {
					logger.Error("periodic cache warming stopped", zap.Error(err))
				}
			}()
		}
	}

	var cachePing func() error
	if memcacheCloser != nil {
		cachePing = memcacheCloser.Ping
	}
	handler := httphandler.NewHandler(weatherService, weatherClient, logger, cachePing)

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())
	weatherRouter := router.PathPrefix("/weather").Subrouter()
	weatherRouter.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	weatherRouter.HandleFunc("/current", handler.GetCurrentWeather).Methods("GET")
	weatherRouter.HandleFunc("/forecast", handler.GetForecast).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
	_ = observability.FlushTelemetry(context.Background(), logger)
}
