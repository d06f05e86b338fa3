package service

import (
	"fmt"
	"strings"
)

// cacheKey derives the canonical cache key for a normalized query. The key is
// an explicit string rather than a structural hash so that two logically
// identical requests always address the same entry, stable across restarts:
// lowercase(city)|units|lang, or lat|lon|units|lang at fixed 4-decimal
// precision for coordinate lookups. Namespacing (current vs forecast) is the
// cache's concern, not the key's.
func cacheKey(q Query) string {
	if q.ByCoords {
		return fmt.Sprintf("%.4f|%.4f|%s|%s", q.Lat, q.Lon, q.Units, q.Lang)
	}
	return fmt.Sprintf("%s|%s|%s", strings.ToLower(strings.TrimSpace(q.City)), q.Units, q.Lang)
}
