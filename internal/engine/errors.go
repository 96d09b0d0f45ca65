package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorCategory classifies extraction failures. Fatal categories are never
// retried; transient categories are retried up to Cfg.MaxRetryAttempts.
type ErrorCategory string

const (
	CategoryUnavailable    ErrorCategory = "unavailable"     // video deleted or never existed
	CategoryPrivate        ErrorCategory = "private"         // video confirmed private
	CategoryRegionBlocked  ErrorCategory = "region_blocked"  // not playable from this region
	CategoryNoCaptions     ErrorCategory = "no_captions"     // no caption track exists
	CategoryAuth           ErrorCategory = "auth"            // bad API key or forbidden
	CategoryRateLimited    ErrorCategory = "rate_limited"    // upstream 429
	CategoryQuotaExhausted ErrorCategory = "quota_exhausted" // API daily quota spent
	CategoryNetwork        ErrorCategory = "network"         // dial/DNS/connection failure
	CategoryTimeout        ErrorCategory = "timeout"
)

// Fatal reports whether a category is terminal without retry.
func (c ErrorCategory) Fatal() bool {
	switch c {
	case CategoryUnavailable, CategoryPrivate, CategoryRegionBlocked, CategoryNoCaptions, CategoryAuth:
		return true
	}
	return false
}

// ExtractionError wraps an upstream failure with its category so the
// scheduler can make retry decisions from data, not string matching.
type ExtractionError struct {
	Category ErrorCategory
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extraction builds a categorized extraction error.
func Extraction(category ErrorCategory, err error) *ExtractionError {
	return &ExtractionError{Category: category, Err: err}
}

// Extractionf builds a categorized extraction error from a format string.
func Extractionf(category ErrorCategory, format string, args ...any) *ExtractionError {
	return &ExtractionError{Category: category, Err: fmt.Errorf(format, args...)}
}

// Categorize maps an arbitrary error to an ErrorCategory. Already-categorized
// errors keep their category; plain network/timeout failures map to transient
// categories; anything unrecognized is treated as a network-class transient.
func Categorize(err error) ErrorCategory {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Category
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}

	var httpErr *httpStatusError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case 429:
			return CategoryRateLimited
		case 401, 403:
			return CategoryAuth
		case 404:
			return CategoryUnavailable
		}
		return CategoryNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}
	return CategoryNetwork
}
