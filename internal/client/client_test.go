package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*OpenWeatherClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewOpenWeatherClient("test-key", srv.URL+"/weather", srv.URL+"/forecast", 2*time.Second)
	if err != nil {
		t.Fatalf("NewOpenWeatherClient() error = %v", err)
	}
	return c, srv
}

func TestNewOpenWeatherClient_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenWeatherClient("", "http://example.com", "http://example.com", time.Second)
	if !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("error = %v, want ErrInvalidAPIKey", err)
	}
}

func TestFetchCurrent_QueryByCity(t *testing.T) {
	var gotQuery map[string]string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"q":     q.Get("q"),
			"appid": q.Get("appid"),
			"units": q.Get("units"),
			"lang":  q.Get("lang"),
		}
		w.Write([]byte(manilaCurrentJSON))
	})

	rec, err := c.FetchCurrent(context.Background(), Params{City: "Manila", Units: "metric", Lang: "en"})
	if err != nil {
		t.Fatalf("FetchCurrent() error = %v", err)
	}
	if rec.CityName != "Manila" {
		t.Errorf("CityName = %q, want Manila", rec.CityName)
	}

	want := map[string]string{"q": "Manila", "appid": "test-key", "units": "metric", "lang": "en"}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}
}

func TestFetchCurrent_QueryByCoordinates(t *testing.T) {
	var lat, lon string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		lat = r.URL.Query().Get("lat")
		lon = r.URL.Query().Get("lon")
		w.Write([]byte(manilaCurrentJSON))
	})

	_, err := c.FetchCurrent(context.Background(), Params{Lat: 14.6042, Lon: 120.9822, ByCoords: true, Units: "metric", Lang: "en"})
	if err != nil {
		t.Fatalf("FetchCurrent() error = %v", err)
	}
	if lat != "14.6042" {
		t.Errorf("lat = %q, want 14.6042", lat)
	}
	if lon != "120.9822" {
		t.Errorf("lon = %q, want 120.9822", lon)
	}
}

func TestFetchCurrent_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{"401 maps to invalid key", http.StatusUnauthorized, ErrInvalidAPIKey},
		{"404 maps to city not found", http.StatusNotFound, ErrCityNotFound},
		{"500 maps to upstream", http.StatusInternalServerError, ErrUpstream},
		{"503 maps to upstream", http.StatusServiceUnavailable, ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})
			_, err := c.FetchCurrent(context.Background(), Params{City: "Manila", Units: "metric", Lang: "en"})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FetchCurrent() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestFetchCurrent_SingleAttempt verifies the client makes exactly one
// upstream call per fetch and does not retry on server errors.
func TestFetchCurrent_SingleAttempt(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.FetchCurrent(context.Background(), Params{City: "Manila", Units: "metric", Lang: "en"})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("FetchCurrent() error = %v, want ErrUpstream", err)
	}
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1", calls)
	}
}

func TestFetchCurrent_MalformedBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": ""}`))
	})
	_, err := c.FetchCurrent(context.Background(), Params{City: "Manila", Units: "metric", Lang: "en"})
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("FetchCurrent() error = %v, want ErrUpstream", err)
	}
}

func TestFetchCurrent_PropagatesCorrelationID(t *testing.T) {
	var gotHeader string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Correlation-ID")
		w.Write([]byte(manilaCurrentJSON))
	})

	ctx := context.WithValue(context.Background(), "correlation_id", "abc-123")
	if _, err := c.FetchCurrent(ctx, Params{City: "Manila", Units: "metric", Lang: "en"}); err != nil {
		t.Fatalf("FetchCurrent() error = %v", err)
	}
	if gotHeader != "abc-123" {
		t.Errorf("X-Correlation-ID = %q, want abc-123", gotHeader)
	}
}

func TestFetchForecast(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast" {
			t.Errorf("path = %q, want /forecast", r.URL.Path)
		}
		w.Write([]byte(forecastJSON(40)))
	})

	recs, err := c.FetchForecast(context.Background(), Params{City: "Manila", Units: "metric", Lang: "en"})
	if err != nil {
		t.Fatalf("FetchForecast() error = %v", err)
	}
	if len(recs) != ForecastCap {
		t.Errorf("len(recs) = %d, want %d", len(recs), ForecastCap)
	}
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
		wantKeyErr bool
	}{
		{"accepted", http.StatusOK, false, false},
		{"rejected key", http.StatusUnauthorized, true, true},
		{"upstream down", http.StatusInternalServerError, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})
			err := c.ValidateAPIKey(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantKeyErr && !errors.Is(err, ErrInvalidAPIKey) {
				t.Errorf("ValidateAPIKey() error = %v, want ErrInvalidAPIKey", err)
			}
		})
	}
}
