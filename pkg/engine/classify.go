package engine

import (
	"context"
	"errors"

	"ustudiopd/eventlive/pkg/generator"
)

// errorType labels a generator failure for metrics.
func errorType(err error) string {
	var (
		authErr    *generator.AuthError
		rateErr    *generator.RateLimitError
		timeoutErr *generator.TimeoutError
		apiErr     *generator.APIError
		parseErr   *generator.ParseError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &rateErr):
		return "rate_limit"
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &apiErr):
		return "api"
	case errors.As(err, &parseErr):
		return "parse"
	default:
		return "other"
	}
}
