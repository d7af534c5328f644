package client

import (
	"context"
	"errors"
	"strings"
)

// ErrorCategory is a stable metric label for a companion fetch failure.
type ErrorCategory string

const (
	ErrorCategoryTimeout          ErrorCategory = "timeout"
	ErrorCategoryNetwork          ErrorCategory = "network"
	ErrorCategoryInvalidAPIKey    ErrorCategory = "invalid_api_key"
	ErrorCategoryLocationNotFound ErrorCategory = "location_not_found"
	ErrorCategoryRateLimited      ErrorCategory = "rate_limited"
	ErrorCategoryUpstream5xx      ErrorCategory = "upstream_5xx"
	ErrorCategoryCircuitOpen      ErrorCategory = "circuit_open"
	ErrorCategoryParsing          ErrorCategory = "parsing"
	ErrorCategoryUnknown          ErrorCategory = "unknown"
)

var sentinelCategories = []struct {
	err error
	cat ErrorCategory
}{
	{context.DeadlineExceeded, ErrorCategoryTimeout},
	{context.Canceled, ErrorCategoryTimeout},
	{ErrInvalidAPIKey, ErrorCategoryInvalidAPIKey},
	{ErrLocationNotFound, ErrorCategoryLocationNotFound},
	{ErrRateLimited, ErrorCategoryRateLimited},
	{ErrUpstreamFailure, ErrorCategoryUpstream5xx},
}

// CategorizeError maps err to an ErrorCategory. Sentinels win over message
// heuristics; nil maps to "".
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}
	for _, s := range sentinelCategories {
		if errors.Is(err, s.err) {
			return s.cat
		}
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "circuit breaker open"):
		return ErrorCategoryCircuitOpen
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network"):
		return ErrorCategoryNetwork
	case strings.Contains(msg, "timeout"):
		return ErrorCategoryTimeout
	case strings.Contains(msg, "parse") || strings.Contains(msg, "unmarshal"):
		return ErrorCategoryParsing
	}
	return ErrorCategoryUnknown
}
