// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitedClient wraps an http.Client behind a token-bucket limiter so
// that every stage talking to the same API shares one request budget.
type RateLimitedClient struct {
	Client  *http.Client
	limiter *rate.Limiter
}

// NewRateLimitedClient returns a client throttled to requestsPerSecond with
// a burst of one. A non-positive rate disables throttling.
func NewRateLimitedClient(client *http.Client, requestsPerSecond float64) *RateLimitedClient {
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return &RateLimitedClient{Client: client, limiter: limiter}
}

// Do waits for limiter clearance, then executes the request with retry on
// 429/503 responses.
func (c *RateLimitedClient) Do(ctx context.Context, req *http.Request, maxRetries int) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return DoWithRetry(ctx, c.Client, req, maxRetries)
}
