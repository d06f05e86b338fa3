package cache

import (
	"context"
	"testing"
	"time"

	"github.com/toyprojects/weather-proxy/internal/models"
)

func TestBoundedCache_GetSetCurrent(t *testing.T) {
	ctx := context.Background()
	c := NewBoundedCache(10)

	if _, ok, err := c.GetCurrent(ctx, "manila|metric|en"); ok || err != nil {
		t.Fatalf("GetCurrent on empty cache = ok %v, err %v; want miss", ok, err)
	}

	rec := models.WeatherRecord{CityName: "Manila", Temperature: 27}
	if err := c.SetCurrent(ctx, "manila|metric|en", rec, time.Minute); err != nil {
		t.Fatalf("SetCurrent() error = %v", err)
	}

	got, ok, err := c.GetCurrent(ctx, "manila|metric|en")
	if err != nil || !ok {
		t.Fatalf("GetCurrent after set = ok %v, err %v; want hit", ok, err)
	}
	if got.CityName != "Manila" || got.Temperature != 27 {
		t.Errorf("GetCurrent = %+v, want cached record", got)
	}
}

// TestBoundedCache_NamespaceSeparation verifies the same key in the current
// and forecast namespaces never collides.
func TestBoundedCache_NamespaceSeparation(t *testing.T) {
	ctx := context.Background()
	c := NewBoundedCache(10)
	key := "manila|metric|en"

	if err := c.SetCurrent(ctx, key, models.WeatherRecord{CityName: "Manila"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.GetForecast(ctx, key); ok {
		t.Error("forecast namespace returned a current-weather entry")
	}

	if err := c.SetForecast(ctx, key, []models.WeatherRecord{{CityName: "Manila"}}, time.Minute); err != nil {
		t.Fatal(err)
	}
	recs, ok, err := c.GetForecast(ctx, key)
	if err != nil || !ok || len(recs) != 1 {
		t.Errorf("GetForecast = %v, %v, %v; want one-entry hit", recs, ok, err)
	}
}

func TestStore_Expiry(t *testing.T) {
	s := newStore[string](10)
	s.set("k", "v", 20*time.Millisecond)

	if _, ok := s.get("k"); !ok {
		t.Fatal("get before expiry = miss, want hit")
	}

	time.Sleep(40 * time.Millisecond)
	if _, ok := s.get("k"); ok {
		t.Error("get after expiry = hit, want miss")
	}
	if s.len() != 0 {
		t.Errorf("len after lazy expiry = %d, want 0", s.len())
	}
}

// TestStore_Bound verifies the store never grows past maxEntries and evicts
// the entry closest to expiry when full.
func TestStore_Bound(t *testing.T) {
	s := newStore[int](3)
	s.set("a", 1, time.Minute)
	s.set("b", 2, 2*time.Minute)
	s.set("c", 3, 3*time.Minute)
	s.set("d", 4, 4*time.Minute)

	if s.len() != 3 {
		t.Fatalf("len = %d, want 3", s.len())
	}
	if _, ok := s.get("a"); ok {
		t.Error("entry closest to expiry survived eviction")
	}
	for _, k := range []string{"b", "c", "d"} {
		if _, ok := s.get(k); !ok {
			t.Errorf("entry %q missing after eviction", k)
		}
	}
}

// TestStore_BoundPrefersExpired verifies expired entries are reclaimed before
// any live entry is evicted.
func TestStore_BoundPrefersExpired(t *testing.T) {
	s := newStore[int](3)
	s.set("stale", 0, -time.Second)
	s.set("b", 2, time.Minute)
	s.set("c", 3, 2*time.Minute)
	s.set("d", 4, 3*time.Minute)

	if _, ok := s.get("stale"); ok {
		t.Error("expired entry survived eviction")
	}
	for _, k := range []string{"b", "c", "d"} {
		if _, ok := s.get(k); !ok {
			t.Errorf("live entry %q evicted while an expired entry existed", k)
		}
	}
}

// TestStore_OverwriteResetsTTL verifies setting an existing key replaces the
// value without triggering eviction.
func TestStore_OverwriteResetsTTL(t *testing.T) {
	s := newStore[int](2)
	s.set("a", 1, time.Minute)
	s.set("b", 2, time.Minute)
	s.set("a", 10, time.Minute)

	if s.len() != 2 {
		t.Errorf("len = %d, want 2", s.len())
	}
	if v, ok := s.get("a"); !ok || v != 10 {
		t.Errorf("get(a) = %d, %v; want 10, true", v, ok)
	}
	if _, ok := s.get("b"); !ok {
		t.Error("overwrite of existing key evicted another entry")
	}
}
