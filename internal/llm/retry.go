// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"
)

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

const defaultMaxRetries = 3

// apiError is an HTTP failure from a model API. Status 429 and 5xx are
// retryable; RetryAfter carries a server-requested delay when present.
type apiError struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *apiError) Error() string {
	return fmt.Sprintf("model API returned %d: %s", e.Status, e.Body)
}

func (e *apiError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// parseRetryAfter reads a Retry-After header given in seconds. Zero means
// no usable value.
func parseRetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// callWithRetry invokes fn with exponential backoff: base, 2x, 4x, ...
// A 429 with Retry-After sleeps the requested delay instead. Non-retryable
// API errors (4xx other than 429) fail immediately. Context cancellation
// aborts the backoff wait.
func callWithRetry(ctx context.Context, maxRetries int, fn func(ctx context.Context) (Response, error)) (Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			if ae, ok := lastErr.(*apiError); ok && ae.RetryAfter > 0 {
				backoff = ae.RetryAfter
			}
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := fn(ctx)
		if err == nil {
			return resp, nil
		}
		if ae, ok := err.(*apiError); ok && !ae.retryable() {
			return Response{}, err
		}
		if ctx.Err() != nil {
			return Response{}, err
		}
		lastErr = err
	}
	return Response{}, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
