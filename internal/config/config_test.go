package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeConfigDir creates a temp working directory holding config/{env}.yaml
// and chdirs into it for the duration of the test.
func writeConfigDir(t *testing.T, env, content string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", env+".yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_NAME", "dev")
	t.Setenv("WEATHER_API_KEY", "test-key")
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("MEMCACHED_ADDRS", "")
	writeConfigDir(t, "dev", "server:\n  port: \"8080\"\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.WeatherAPIKey != "test-key" {
		t.Errorf("WeatherAPIKey = %q, want test-key", cfg.WeatherAPIKey)
	}
	if cfg.CacheBackend != "in_memory" {
		t.Errorf("CacheBackend = %q, want in_memory", cfg.CacheBackend)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("CacheTTL = %v, want 10m", cfg.CacheTTL)
	}
	if cfg.CacheMaxEntries != 100 {
		t.Errorf("CacheMaxEntries = %d, want 100", cfg.CacheMaxEntries)
	}
	if cfg.RateLimitCapacity != 10 {
		t.Errorf("RateLimitCapacity = %d, want 10", cfg.RateLimitCapacity)
	}
	if cfg.RateLimitWindow != 2*time.Minute {
		t.Errorf("RateLimitWindow = %v, want 2m", cfg.RateLimitWindow)
	}
	if cfg.WeatherAPITimeout != 2*time.Second {
		t.Errorf("WeatherAPITimeout = %v, want 2s", cfg.WeatherAPITimeout)
	}
	if cfg.WeatherAPIURL != "https://api.openweathermap.org/data/2.5/weather" {
		t.Errorf("WeatherAPIURL = %q, want OpenWeatherMap default", cfg.WeatherAPIURL)
	}
}

func TestLoad_FileValues(t *testing.T) {
	t.Setenv("ENV_NAME", "dev")
	t.Setenv("WEATHER_API_KEY", "test-key")
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("MEMCACHED_ADDRS", "")
	writeConfigDir(t, "dev", `
server:
  port: "9090"
weather_api:
  timeout: 3s
request:
  timeout: 8s
cache:
  backend: memcached
  ttl: 5m
  max_entries: 50
  memcached:
    addrs: "cache1:11211,cache2:11211"
rate_limit:
  capacity: 20
  window: 1m
  idle_factor: 3
metrics:
  tracked_cities:
    - manila
    - london
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.CacheBackend != "memcached" {
		t.Errorf("CacheBackend = %q, want memcached", cfg.CacheBackend)
	}
	if cfg.CacheTTL != 5*time.Minute || cfg.CacheMaxEntries != 50 {
		t.Errorf("cache = %v/%d, want 5m/50", cfg.CacheTTL, cfg.CacheMaxEntries)
	}
	if cfg.MemcachedAddrs != "cache1:11211,cache2:11211" {
		t.Errorf("MemcachedAddrs = %q", cfg.MemcachedAddrs)
	}
	if cfg.RateLimitCapacity != 20 || cfg.RateLimitWindow != time.Minute {
		t.Errorf("rate limit = %d/%v, want 20/1m", cfg.RateLimitCapacity, cfg.RateLimitWindow)
	}
	if cfg.RateLimitIdleFactor != 3 {
		t.Errorf("RateLimitIdleFactor = %d, want 3", cfg.RateLimitIdleFactor)
	}
	if len(cfg.TrackedCities) != 2 {
		t.Errorf("TrackedCities = %v, want 2 entries", cfg.TrackedCities)
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("ENV_NAME", "dev")
	t.Setenv("WEATHER_API_KEY", "")
	writeConfigDir(t, "dev", "server:\n  port: \"8080\"\n")

	if _, err := Load(); err == nil {
		t.Error("Load() = nil error, want missing API key failure")
	}
}

func TestLoad_SecretsFile(t *testing.T) {
	t.Setenv("ENV_NAME", "dev")
	t.Setenv("WEATHER_API_KEY", "")
	t.Setenv("CACHE_BACKEND", "")
	writeConfigDir(t, "dev", "server:\n  port: \"8080\"\n")
	if err := os.WriteFile(filepath.Join("config", "secrets.yaml"), []byte("weather_api_key: from-secrets\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WeatherAPIKey != "from-secrets" {
		t.Errorf("WeatherAPIKey = %q, want from-secrets", cfg.WeatherAPIKey)
	}
}

func TestLoad_EnvOverridesBackend(t *testing.T) {
	t.Setenv("ENV_NAME", "dev")
	t.Setenv("WEATHER_API_KEY", "test-key")
	t.Setenv("CACHE_BACKEND", "memcached")
	t.Setenv("MEMCACHED_ADDRS", "envhost:11211")
	writeConfigDir(t, "dev", "cache:\n  backend: in_memory\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CacheBackend != "memcached" {
		t.Errorf("CacheBackend = %q, want env override memcached", cfg.CacheBackend)
	}
	if cfg.MemcachedAddrs != "envhost:11211" {
		t.Errorf("MemcachedAddrs = %q, want envhost:11211", cfg.MemcachedAddrs)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("ENV_NAME", "nonexistent")
	t.Setenv("WEATHER_API_KEY", "test-key")
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})

	if _, err := Load(); err == nil {
		t.Error("Load() = nil error, want missing config file failure")
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("ENV_NAME", "dev")
	t.Setenv("WEATHER_API_KEY", "test-key")
	t.Setenv("CACHE_BACKEND", "")
	writeConfigDir(t, "dev", "cache:\n  backend: redis\n")

	if _, err := Load(); err == nil {
		t.Error("Load() = nil error, want unknown backend failure")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Duration
	}{
		{"valid", "30s", 30 * time.Second},
		{"empty uses default", "", time.Minute},
		{"garbage uses default", "soon", time.Minute},
		{"negative uses default", "-5s", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseDuration(tt.in, time.Minute); got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// TestValidate_RequestTimeoutAdjusted verifies the request timeout is widened
// to cover the upstream timeout instead of rejecting the config.
func TestValidate_RequestTimeoutAdjusted(t *testing.T) {
	cfg := &Config{
		WeatherAPITimeout: 5 * time.Second,
		RequestTimeout:    2 * time.Second,
		CacheBackend:      "in_memory",
	}
	if err := validate(cfg); err != nil {
		t.Fatalf("validate() error = %v", err)
	}
	if cfg.RequestTimeout != 6*time.Second {
		t.Errorf("RequestTimeout = %v, want 6s (upstream + 1s)", cfg.RequestTimeout)
	}
}
