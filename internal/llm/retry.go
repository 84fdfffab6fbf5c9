package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// StatusError is a non-2xx answer from a completion service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("non-2xx status: %d", e.Code)
	}
	return fmt.Sprintf("non-2xx status: %d: %s", e.Code, e.Body)
}

// IsRetryable reports whether err is a rate limit or server-side failure.
func IsRetryable(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == http.StatusTooManyRequests || se.Code >= 500
}

// RetryPolicy bounds the attempts made for one completion.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
}

// DefaultRetryPolicy makes 3 attempts with the wait doubling from 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialBackoff: 5 * time.Second}
}

// Retry calls fn until it succeeds, fails with a non-retryable error, or the
// attempts run out. The wait doubles after every retryable failure.
func Retry(ctx context.Context, p RetryPolicy, logger *slog.Logger, fn func(ctx context.Context) (string, error)) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	wait := p.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == p.MaxAttempts {
			break
		}
		logger.Warn("llm.retry.backoff", "attempt", attempt, "wait_ms", wait.Milliseconds(), "error", err)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
		wait *= 2
	}
	return "", lastErr
}
