package observability

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// OpenWeatherMap API call rate. Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// External API latency per request. Watch for: p95 > 2s (upstream degradation).
	WeatherAPIDuration *prometheus.HistogramVec

	// Cache hits per namespace (current, forecast). Hit rate = hits/(hits+weatherApiCallsTotal).
	CacheHitsTotal *prometheus.CounterVec

	// Cache backend failures per operation (get, set). Nonzero only with memcached.
	CacheErrorsTotal *prometheus.CounterVec

	// Cache warming runs.
	CacheWarmingTotal prometheus.Counter

	// Total weather lookups. Watch for: traffic volume, rate() for QPS.
	WeatherQueriesTotal prometheus.Counter

	// Per-city query count (allow-list; others go to "other"). Watch for: traffic distribution.
	WeatherQueriesByCityTotal *prometheus.CounterVec

	// Per-client rate limit denials (429). Watch for: abusive clients, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Tracked rate-limiter identities. Watch for: unbounded growth (sweeper stalled).
	RateLimitIdentities prometheus.GaugeFunc

	// Request failures by category (city_not_found, rate_limited, upstream, ...).
	RequestErrorsTotal *prometheus.CounterVec

	// trackedCities is built from config; used to resolve the city label.
	trackedCitiesMu sync.RWMutex
	trackedCities   map[string]struct{}
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of OpenWeatherMap API calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "OpenWeatherMap API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of cache hits per namespace",
		},
		[]string{"namespace"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Total number of cache backend errors per operation",
		},
		[]string{"operation"},
	)
	CacheWarmingTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingTotal",
			Help: "Total number of cache warming runs",
		},
	)
	WeatherQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherQueriesTotal",
			Help: "Total number of weather lookups",
		},
	)
	WeatherQueriesByCityTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherQueriesByCityTotal",
			Help: "Weather queries by city (allow-list; others use city=other)",
		},
		[]string{"city"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by the per-client rate limiter (429)",
		},
	)
	RequestErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherRequestErrorsTotal",
			Help: "Weather request failures by error category",
		},
		[]string{"category"},
	)

	registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
		WeatherAPICallsTotal,
		WeatherAPIDuration,
		CacheHitsTotal,
		CacheErrorsTotal,
		CacheWarmingTotal,
		WeatherQueriesTotal,
		WeatherQueriesByCityTotal,
		RateLimitDeniedTotal,
		RequestErrorsTotal,
	)
}

// RegisterRateLimitIdentityGauge exposes the number of identities the rate
// limiter currently tracks. size is sampled on scrape.
func RegisterRateLimitIdentityGauge(size func() int) {
	RateLimitIdentities = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "rateLimitIdentities",
			Help: "Number of client identities tracked by the rate limiter",
		},
		func() float64 { return float64(size()) },
	)
	registry.MustRegister(RateLimitIdentities)
}

// SetTrackedCities sets the allow-list for city metrics. Non-tracked cities
// increment "other".
func SetTrackedCities(cities []string) {
	trackedCitiesMu.Lock()
	defer trackedCitiesMu.Unlock()
	trackedCities = make(map[string]struct{}, len(cities))
	for _, c := range cities {
		trackedCities[normalizeCityForMetrics(c)] = struct{}{}
	}
}

// RecordWeatherQuery records a weather query for the given city. Coordinate
// lookups pass an empty city and count under "other".
func RecordWeatherQuery(city string) {
	WeatherQueriesTotal.Inc()
	c := normalizeCityForMetrics(city)
	trackedCitiesMu.RLock()
	_, ok := trackedCities[c] // nil map read is safe in Go
	trackedCitiesMu.RUnlock()
	if ok {
		WeatherQueriesByCityTotal.WithLabelValues(c).Inc()
	} else {
		WeatherQueriesByCityTotal.WithLabelValues("other").Inc()
	}
}

func normalizeCityForMetrics(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return s
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
