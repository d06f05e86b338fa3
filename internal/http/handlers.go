package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/toyprojects/weather-proxy/internal/client"
	"github.com/toyprojects/weather-proxy/internal/lifecycle"
	"github.com/toyprojects/weather-proxy/internal/models"
	"github.com/toyprojects/weather-proxy/internal/observability"
	"github.com/toyprojects/weather-proxy/internal/ratelimit"
	"github.com/toyprojects/weather-proxy/internal/service"
	"github.com/toyprojects/weather-proxy/internal/validation"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	weatherService *service.WeatherService
	client         client.WeatherClient
	logger         *zap.Logger
	cachePing      func() error // nil unless the cache backend supports pings
}

// NewHandler returns a new Handler. cachePing may be nil.
func NewHandler(weatherService *service.WeatherService, client client.WeatherClient, logger *zap.Logger, cachePing func() error) *Handler {
	return &Handler{
		weatherService: weatherService,
		client:         client,
		logger:         logger,
		cachePing:      cachePing,
	}
}

// currentWeatherResponse wraps a record with the derived time-of-day hint
// ("day" for local hours [6, 18), otherwise "night").
type currentWeatherResponse struct {
	models.WeatherRecord
	TimeOfDay string `json:"timeOfDay"`
}

// GetCurrentWeather handles GET /weather/current. Requires either ?city= or
// both ?lat= and ?lon=; units and lang are optional and normalized downstream.
// The caller's identity (client IP) scopes the rate limit.
func (h *Handler) GetCurrentWeather(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	record, err := h.weatherService.FetchCurrentWithRateLimit(r.Context(), clientIdentity(r), q)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, currentWeatherResponse{
		WeatherRecord: record,
		TimeOfDay:     timeOfDay(record),
	})
}

// GetForecast handles GET /weather/forecast. Accepts the same location
// parameters as current weather plus optional page and size.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	page := intParam(r, "page", 0)
	size := intParam(r, "size", service.DefaultPageSize)

	result, err := h.weatherService.FetchForecastPaged(r.Context(), q, page, size)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	checks := make(map[string]string)

	if lifecycle.IsShuttingDown() {
		status = "shutting-down"
		statusCode = http.StatusServiceUnavailable
	} else if err := h.client.ValidateAPIKey(r.Context()); err != nil {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
		checks["weatherApi"] = "unhealthy"
	} else {
		checks["weatherApi"] = "healthy"
	}

	if h.cachePing != nil {
		if h.cachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}

	writeJSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"service":   "weather-proxy",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// parseQuery extracts the weather query from request parameters. City takes
// precedence; coordinates are used when city is absent. Missing both is an
// invalid request, caught before any I/O.
func parseQuery(r *http.Request) (service.Query, error) {
	values := r.URL.Query()
	q := service.Query{
		Units: values.Get("units"),
		Lang:  values.Get("lang"),
	}

	if city := strings.TrimSpace(values.Get("city")); city != "" {
		q.City = city
		return q, nil
	}

	latStr, lonStr := values.Get("lat"), values.Get("lon")
	if latStr == "" || lonStr == "" {
		return service.Query{}, validation.ErrInvalidInput
	}
	lat, latErr := strconv.ParseFloat(latStr, 64)
	lon, lonErr := strconv.ParseFloat(lonStr, 64)
	if latErr != nil || lonErr != nil {
		return service.Query{}, validation.ErrInvalidInput
	}
	q.Lat, q.Lon, q.ByCoords = lat, lon, true
	return q, nil
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// clientIdentity resolves the client identity used to scope rate limiting:
// the first X-Forwarded-For hop when present, else the RemoteAddr host.
func clientIdentity(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// timeOfDay derives "day" or "night" from the record's local observation hour.
func timeOfDay(rec models.WeatherRecord) string {
	if h := rec.LocalHour(); h >= 6 && h < 18 {
		return "day"
	}
	return "night"
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code,
// message, and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// writeRequestError maps the error taxonomy to transport responses. Matching
// happens here, at the boundary; the core raises tagged errors and performs
// no recovery of its own.
func writeRequestError(w http.ResponseWriter, r *http.Request, err error) {
	observability.RequestErrorsTotal.WithLabelValues(string(client.CategorizeError(err))).Inc()

	switch {
	case errors.Is(err, validation.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "city or lat/lon query parameters are required")
	case errors.Is(err, validation.ErrCityNotFound), errors.Is(err, client.ErrCityNotFound):
		writeError(w, r, http.StatusNotFound, "CITY_NOT_FOUND", "no resolvable location for the given parameters")
	case errors.Is(err, client.ErrInvalidAPIKey):
		writeError(w, r, http.StatusUnauthorized, "INVALID_API_KEY", "upstream API key rejected")
	case errors.Is(err, ratelimit.ErrRateLimited):
		writeError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded, please try again later")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "upstream request timed out")
	default:
		writeError(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "unable to fetch weather data")
	}

	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		logger.Debug("request failed", zap.Error(err))
	}
}
