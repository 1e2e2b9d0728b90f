package proxypool

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"
)

// CheckResult is the outcome of reaching the probe URL through one proxy.
type CheckResult struct {
	Proxy      *url.URL
	OK         bool
	StatusCode int
	Latency    time.Duration
	Err        error
}

// Check requests probeURL through every proxy (healthy or not) with at most
// workers in flight, marking failures bad. Results keep pool order.
func (p *Pool) Check(ctx context.Context, probeURL string, timeout time.Duration, workers int) []CheckResult {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	proxies := append([]*url.URL(nil), p.proxies...)
	p.mu.Unlock()
	if workers <= 0 {
		workers = 10
	}
	out := make([]CheckResult, len(proxies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, u := range proxies {
		g.Go(func() error {
			out[i] = checkOne(gctx, u, probeURL, timeout)
			if !out[i].OK {
				p.MarkBad(u)
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func checkOne(ctx context.Context, u *url.URL, probeURL string, timeout time.Duration) CheckResult {
	res := CheckResult{Proxy: u}
	client, err := ClientFor(u, timeout)
	if err != nil {
		res.Err = err
		return res
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		res.Err = err
		return res
	}
	start := time.Now()
	resp, err := client.Do(req)
	res.Latency = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	res.StatusCode = resp.StatusCode
	res.OK = resp.StatusCode < 400
	return res
}
