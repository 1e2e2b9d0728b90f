package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusError reports a non-200 response from a fetch that requires 200.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d", e.URL, e.Code)
}

// RetryPolicy controls when DoWithRetry retries after a response.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries including the first. <= 0 means 2.
	MaxAttempts int
	// Retry429: on 429 wait Retry-After (or Backoff429 when absent), capped at Max429Wait.
	Retry429   bool
	Backoff429 time.Duration
	Max429Wait time.Duration
	// Retry5xx: on 5xx wait Backoff5xx.
	Retry5xx   bool
	Backoff5xx time.Duration
}

// DefaultRetryPolicy is used for plain resource fetches (relay playlist, scrape pages, EPG feeds).
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	Retry429:    true,
	Backoff429:  5 * time.Second,
	Max429Wait:  60 * time.Second,
	Retry5xx:    true,
	Backoff5xx:  1 * time.Second,
}

// DoWithRetry performs req and on 429/5xx (when policy allows) waits and retries.
// 4xx (except 429) are never retried. Only body-less requests can be retried.
// Caller must close resp.Body when err == nil.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, policy RetryPolicy) (*http.Response, error) {
	if client == nil {
		client = Default()
	}
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 2
	}
	for attempt := 1; ; attempt++ {
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		code := resp.StatusCode
		var wait time.Duration
		switch {
		case code == http.StatusTooManyRequests && policy.Retry429:
			wait = parseRetryAfter(resp.Header.Get("Retry-After"), policy.Backoff429, policy.Max429Wait)
		case code >= 500 && policy.Retry5xx:
			wait = policy.Backoff5xx
		default:
			return resp, nil
		}
		if attempt >= attempts || req.Body != nil {
			return resp, nil
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		req = req.Clone(ctx)
	}
}

// parseRetryAfter parses Retry-After (seconds or HTTP-date); returns fallback when absent
// or unparseable, and never more than max.
func parseRetryAfter(s string, fallback, max time.Duration) time.Duration {
	if max <= 0 {
		max = 60 * time.Second
	}
	d := fallback
	s = strings.TrimSpace(s)
	if sec, err := strconv.Atoi(s); err == nil && sec >= 0 {
		d = time.Duration(sec) * time.Second
	} else if t, err := time.Parse(time.RFC1123, s); err == nil {
		d = time.Until(t)
		if d < 0 {
			d = 0
		}
	}
	if d > max {
		return max
	}
	return d
}
