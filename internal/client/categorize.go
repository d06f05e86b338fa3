package client

import (
	"context"
	"errors"
	"strings"

	"github.com/toyprojects/weather-proxy/internal/ratelimit"
	"github.com/toyprojects/weather-proxy/internal/validation"
)

// ErrorCategory is a stable label for error classification in metrics.
type ErrorCategory string

// Error category constants used as metric labels (weatherRequestErrorsTotal).
const (
	ErrorCategoryTimeout       ErrorCategory = "timeout"
	ErrorCategoryNetwork       ErrorCategory = "network"
	ErrorCategoryInvalidAPIKey ErrorCategory = "invalid_api_key"
	ErrorCategoryCityNotFound  ErrorCategory = "city_not_found"
	ErrorCategoryRateLimited   ErrorCategory = "rate_limited"
	ErrorCategoryUpstream      ErrorCategory = "upstream"
	ErrorCategoryValidation    ErrorCategory = "validation"
	ErrorCategoryUnknown       ErrorCategory = "unknown"
)

// CategorizeError maps an error to a stable ErrorCategory for metrics.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidAPIKey):
		return ErrorCategoryInvalidAPIKey
	case errors.Is(err, ErrCityNotFound), errors.Is(err, validation.ErrCityNotFound):
		return ErrorCategoryCityNotFound
	case errors.Is(err, ratelimit.ErrRateLimited):
		return ErrorCategoryRateLimited
	case errors.Is(err, validation.ErrInvalidInput):
		return ErrorCategoryValidation
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrorCategoryTimeout
	}

	errStr := err.Error()
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "network") {
		return ErrorCategoryNetwork
	}
	if errors.Is(err, ErrUpstream) {
		return ErrorCategoryUpstream
	}
	return ErrorCategoryUnknown
}
