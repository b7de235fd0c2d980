// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for calls to model endpoints.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// transient failures. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 1

// retryable reports whether a response status warrants another attempt.
// Rate limits (429) and server errors (5xx) are transient; other 4xx
// statuses indicate a malformed request and are returned as-is.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// DoWithRetry executes an HTTP request and retries transient failures —
// network errors, HTTP 429, and HTTP 5xx — with exponential backoff
// starting at RetryBaseDelay and doubling each attempt.
//
// When maxRetries is <= 0 the default (1) is used, so a transient failure
// costs at most one extra round trip. Validation failures (other 4xx) are
// never retried. If the context is cancelled during a backoff wait the
// function returns ctx.Err(). After exhausting retries the last response
// (or error) is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		clone := req.Clone(ctx)
		if req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, bodyErr
			}
			clone.Body = body
		}
		resp, err := client.Do(clone)

		if err == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}

		// Exhausted retries — hand back whatever we got.
		if attempt >= maxRetries {
			return resp, err
		}

		if resp != nil {
			// Drain and close the body before retrying.
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
