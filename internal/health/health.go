// Package health checks that the configured upstream endpoints answer before a run.
package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/snapetech/iptvmirror/internal/httpclient"
)

// Endpoint is one upstream the commands depend on.
type Endpoint struct {
	Name string
	URL  string
}

// Result is the outcome of checking one Endpoint.
type Result struct {
	Endpoint   Endpoint
	StatusCode int
	Latency    time.Duration
	Err        error
}

// OK reports whether the endpoint answered 200.
func (r Result) OK() bool { return r.Err == nil }

// CheckURL GETs rawURL and discards the body. Some upstreams reject HEAD, so GET
// is used throughout. Anything but 200 is an error.
func CheckURL(ctx context.Context, client *http.Client, rawURL, ua string) (int, error) {
	if rawURL == "" {
		return 0, fmt.Errorf("no URL configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	httpclient.ApplyHeaders(req, ua, httpclient.BrowserHeaders)
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("unreachable: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, &httpclient.StatusError{URL: rawURL, Code: resp.StatusCode}
	}
	return resp.StatusCode, nil
}

// CheckEndpoints checks every endpoint concurrently; results keep input order.
func CheckEndpoints(ctx context.Context, client *http.Client, ua string, endpoints []Endpoint) []Result {
	out := make([]Result, len(endpoints))
	var g errgroup.Group
	g.SetLimit(4)
	for i, ep := range endpoints {
		g.Go(func() error {
			start := time.Now()
			code, err := CheckURL(ctx, client, ep.URL, ua)
			out[i] = Result{Endpoint: ep, StatusCode: code, Latency: time.Since(start), Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
