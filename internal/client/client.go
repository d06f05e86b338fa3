package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/toyprojects/weather-proxy/internal/models"
	"github.com/toyprojects/weather-proxy/internal/observability"
)

// WeatherClient fetches and normalizes weather data from the upstream provider.
type WeatherClient interface {
	FetchCurrent(ctx context.Context, p Params) (models.WeatherRecord, error)
	FetchForecast(ctx context.Context, p Params) ([]models.WeatherRecord, error)
	ValidateAPIKey(ctx context.Context) error
}

var (
	ErrInvalidAPIKey = errors.New("invalid API key")
	ErrCityNotFound  = errors.New("city not found")
	ErrUpstream      = errors.New("upstream failure")
)

// Params addresses one upstream lookup. City and coordinates are mutually
// exclusive; ByCoords selects which pair of query parameters is sent.
// Units and Lang must already be normalized by the validation layer.
type Params struct {
	City     string
	Lat, Lon float64
	ByCoords bool
	Units    string
	Lang     string
}

// ForecastCap is the maximum number of forecast entries retained after
// parsing, regardless of how long the upstream list is. Consumers only need
// a short look-ahead window.
const ForecastCap = 10

// OpenWeatherClient talks to the OpenWeatherMap current-weather and forecast
// endpoints. One attempt per call; failures surface immediately.
type OpenWeatherClient struct {
	apiKey      string
	currentURL  string
	forecastURL string
	client      *http.Client
}

// NewOpenWeatherClient creates an OpenWeatherClient. timeout bounds each
// upstream call end to end.
func NewOpenWeatherClient(apiKey, currentURL, forecastURL string, timeout time.Duration) (*OpenWeatherClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	return &OpenWeatherClient{
		apiKey:      apiKey,
		currentURL:  currentURL,
		forecastURL: forecastURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// FetchCurrent fetches current weather and normalizes it into a WeatherRecord.
func (c *OpenWeatherClient) FetchCurrent(ctx context.Context, p Params) (models.WeatherRecord, error) {
	body, err := c.call(ctx, c.currentURL, p)
	if err != nil {
		return models.WeatherRecord{}, err
	}
	rec, err := parseCurrent(body)
	if err != nil {
		return models.WeatherRecord{}, fmt.Errorf("%w: parse response: %v", ErrUpstream, err)
	}
	return rec, nil
}

// FetchForecast fetches the forecast list, normalized and capped at ForecastCap
// entries in upstream (chronological) order.
func (c *OpenWeatherClient) FetchForecast(ctx context.Context, p Params) ([]models.WeatherRecord, error) {
	body, err := c.call(ctx, c.forecastURL, p)
	if err != nil {
		return nil, err
	}
	recs, err := parseForecast(body, ForecastCap)
	if err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrUpstream, err)
	}
	return recs, nil
}

func (c *OpenWeatherClient) call(ctx context.Context, baseURL string, p Params) ([]byte, error) {
	start := time.Now()

	req, err := c.buildRequest(ctx, baseURL, p)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}

	corrID := extractCorrelationID(ctx)
	if corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: request timeout: %v", ErrUpstream, err)
		}
		return nil, fmt.Errorf("%w: http request failed: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(duration)

	if err := c.handleErrorResponse(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrUpstream, err)
	}
	return body, nil
}

func (c *OpenWeatherClient) buildRequest(ctx context.Context, rawURL string, p Params) (*http.Request, error) {
	baseURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	if p.ByCoords {
		params.Set("lat", strconv.FormatFloat(p.Lat, 'f', 4, 64))
		params.Set("lon", strconv.FormatFloat(p.Lon, 'f', 4, 64))
	} else {
		params.Set("q", p.City)
	}
	params.Set("appid", c.apiKey)
	params.Set("units", p.Units)
	params.Set("lang", p.Lang)
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *OpenWeatherClient) handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: upstream rejected key", ErrInvalidAPIKey)
	case http.StatusNotFound:
		return fmt.Errorf("%w", ErrCityNotFound)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstream, resp.StatusCode)
	}

	return nil
}

func extractCorrelationID(ctx context.Context) string {
	if corrIDVal := ctx.Value("correlation_id"); corrIDVal != nil {
		if corrID, ok := corrIDVal.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}

// ValidateAPIKey probes the current-weather endpoint with a known city to
// verify the configured key is accepted. Used by the health check.
func (c *OpenWeatherClient) ValidateAPIKey(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := c.buildRequest(ctx, c.currentURL, Params{City: "London", Units: "metric", Lang: "en"})
	if err != nil {
		return fmt.Errorf("build validation request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("validation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: API key is invalid or not activated", ErrInvalidAPIKey)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("validation failed: HTTP %d", resp.StatusCode)
	}

	return nil
}
