package validation

import (
	"errors"
	"strings"
)

// ErrCityNotFound is returned for inputs that cannot resolve to a location:
// an empty or whitespace-only city, or coordinates outside the valid range.
// The upstream 404 maps to the same condition at the client layer, so the
// boundary treats all three as "no resolvable location".
var ErrCityNotFound = errors.New("city not found")

// ErrInvalidInput is returned for malformed request parameters caught before
// any I/O (e.g. both city and coordinates missing).
var ErrInvalidInput = errors.New("invalid input")

const (
	// DefaultUnits is used when the requested unit system is blank or not whitelisted.
	DefaultUnits = "metric"
	// DefaultLanguage is used when the requested language is blank or not whitelisted.
	DefaultLanguage = "en"
)

// validUnits is the OpenWeatherMap unit-system whitelist.
var validUnits = []string{"standard", "metric", "imperial"}

// ValidateCity rejects empty or whitespace-only city names.
func ValidateCity(city string) error {
	if strings.TrimSpace(city) == "" {
		return ErrCityNotFound
	}
	return nil
}

// ValidateCoordinates rejects coordinates outside lat [-90, 90] or
// lon [-180, 180]. Boundary values are accepted.
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrCityNotFound
	}
	return nil
}

// NormalizeUnits returns DefaultUnits when units is blank or not in the
// whitelist. Whitelist matching is case-insensitive; a valid value passes
// through trimmed, with its original casing. Trimming matters downstream:
// the value flows into both the upstream query string and the cache key.
func NormalizeUnits(units string) string {
	trimmed := strings.TrimSpace(units)
	if trimmed == "" {
		return DefaultUnits
	}
	for _, u := range validUnits {
		if strings.EqualFold(trimmed, u) {
			return trimmed
		}
	}
	return DefaultUnits
}

// NormalizeLanguage returns DefaultLanguage when lang is blank or not in the
// language whitelist. Whitelist matching is case-insensitive; a valid value
// passes through trimmed, with its original casing.
func NormalizeLanguage(lang string) string {
	trimmed := strings.TrimSpace(lang)
	if trimmed == "" {
		return DefaultLanguage
	}
	if _, ok := validLanguages[strings.ToLower(trimmed)]; ok {
		return trimmed
	}
	return DefaultLanguage
}
