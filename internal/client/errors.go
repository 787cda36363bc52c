package client

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"token_screener/internal/pkg/retry"
)

// ErrorKind classifies an upstream failure.
type ErrorKind int

const (
	// KindTerminal is a failure that repeating the request will not fix.
	KindTerminal ErrorKind = iota
	// KindTransient covers transport errors, timeouts and 5xx responses.
	KindTransient
	// KindRateLimited is an HTTP 429 response.
	KindRateLimited
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "terminal"
	}
}

// RequestError describes a failed upstream request.
type RequestError struct {
	Kind       ErrorKind
	StatusCode int
	// RetryAfter is the server-provided delay of a 429 response; zero when absent.
	RetryAfter time.Duration
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s upstream error (HTTP %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s upstream error: %v", e.Kind, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transient or rate-limited RequestError.
func IsRetryable(err error) bool {
	var re *RequestError
	if !errors.As(err, &re) {
		return false
	}
	return re.Kind == KindTransient || re.Kind == KindRateLimited
}

// classifyStatus maps a non-2xx status to an error kind.
func classifyStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindTransient
	default:
		return KindTerminal
	}
}

// parseRetryAfter accepts delta-seconds (integer or fractional) or an HTTP date.
// The result is capped at retry.MaxBackoff; unusable values yield zero.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs <= 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0
		}
		if secs >= retry.MaxBackoff.Seconds() {
			return retry.MaxBackoff
		}
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return min(d, retry.MaxBackoff)
		}
	}
	return 0
}
