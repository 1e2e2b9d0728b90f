// Package validate probes candidate mirror URLs and keeps the ones that answer 200.
//
// Each URL is tried with HEAD; ambiguous statuses fall back to GET. 429 waits a
// fixed backoff and retries. When a proxy pool is configured, blocked or failed
// attempts move to the next proxy instead of giving up.
package validate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/grafov/m3u8"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/snapetech/iptvmirror/internal/httpclient"
	"github.com/snapetech/iptvmirror/internal/metrics"
	"github.com/snapetech/iptvmirror/internal/proxypool"
	"github.com/snapetech/iptvmirror/internal/safeurl"
	"github.com/snapetech/iptvmirror/internal/store"
)

const (
	DefaultWorkers     = 10
	DefaultMaxAttempts = 5
	DefaultBackoff     = 5 * time.Second
	DefaultTimeout     = 10 * time.Second

	// verifyLimit bounds how much of a GET body is read for playlist verification.
	verifyLimit = 64 * 1024
	// previewLimit bounds how much of a failed GET body is read for block detection.
	previewLimit = 512
)

// Cache is the probe cache used by Run. *store.Cache satisfies it.
type Cache interface {
	Get(ctx context.Context, url string, ttl time.Duration) (valid, fresh bool)
	PutResults(ctx context.Context, entries []store.Entry) error
}

// Validator checks mirror URLs. The zero value is usable; unset fields take defaults.
type Validator struct {
	// Client is used for direct requests; nil means httpclient.WithTimeout(Timeout).
	Client      *http.Client
	Workers     int
	MaxAttempts int
	Backoff     time.Duration
	Timeout     time.Duration
	UserAgent   string
	Headers     map[string]string

	Proxies  *proxypool.Pool
	Limiter  *rate.Limiter
	HostSem  *httpclient.HostSemaphore
	Cache    Cache
	CacheTTL time.Duration
	Metrics  *metrics.Metrics

	// VerifyPlaylist requires a 200 GET body to decode as an HLS playlist.
	VerifyPlaylist bool

	Log zerolog.Logger

	once        sync.Once
	direct      *http.Client
	proxyMu     sync.Mutex
	proxyClient map[string]*http.Client
}

func (v *Validator) init() {
	v.once.Do(func() {
		if v.Workers <= 0 {
			v.Workers = DefaultWorkers
		}
		if v.MaxAttempts <= 0 {
			v.MaxAttempts = DefaultMaxAttempts
		}
		if v.Backoff < 0 {
			v.Backoff = 0
		}
		if v.Timeout <= 0 {
			v.Timeout = DefaultTimeout
		}
		v.direct = v.Client
		if v.direct == nil {
			v.direct = httpclient.WithTimeout(v.Timeout)
		}
		v.proxyClient = make(map[string]*http.Client)
	})
}

// clientFor returns the direct client for a nil proxy, else a cached per-proxy client.
func (v *Validator) clientFor(px *url.URL) (*http.Client, error) {
	if px == nil {
		return v.direct, nil
	}
	key := px.String()
	v.proxyMu.Lock()
	defer v.proxyMu.Unlock()
	if c, ok := v.proxyClient[key]; ok {
		return c, nil
	}
	c, err := v.Proxies.Client(px, v.Timeout)
	if err != nil {
		return nil, err
	}
	v.proxyClient[key] = c
	return c, nil
}

type verdict int

const (
	verdictValid verdict = iota
	verdictInvalid
	verdictRetry // 429
	verdictBlocked
	verdictTransport
)

func (v verdict) String() string {
	switch v {
	case verdictValid:
		return "valid"
	case verdictInvalid:
		return "invalid"
	case verdictRetry:
		return "retry"
	case verdictBlocked:
		return "blocked"
	}
	return "error"
}

type step struct {
	verdict verdict
	code    int
	method  string
	err     error
}

// Check probes one URL to a verdict. It never returns an error; failures are
// carried in Result.Outcome and Result.Err.
func (v *Validator) Check(ctx context.Context, rawURL string) Result {
	v.init()
	start := time.Now()
	res := Result{URL: rawURL}
	defer func() { res.Latency = time.Since(start) }()

	if !safeurl.IsHTTPOrHTTPS(rawURL) {
		res.Outcome = OutcomeError
		res.Err = fmt.Errorf("not an http(s) URL")
		return res
	}

	// Direct first; the pool is only used once the mirror blocks us or the connection fails.
	var px *url.URL
	nextProxy := func() bool {
		if v.Proxies == nil {
			return false
		}
		p, err := v.Proxies.Next()
		if err != nil {
			res.Err = errors.Join(res.Err, err)
			return false
		}
		if px != nil {
			v.Metrics.ProxyRotation()
		}
		px = p
		return true
	}

	for attempt := 1; attempt <= v.MaxAttempts; attempt++ {
		res.Attempts = attempt
		if err := httpclient.Wait(ctx, v.Limiter); err != nil {
			res.Outcome, res.Err = OutcomeError, err
			return res
		}
		client, err := v.clientFor(px)
		if err != nil {
			v.Proxies.MarkBad(px)
			res.Err = err
			if !nextProxy() {
				res.Outcome = OutcomeError
				return res
			}
			continue
		}
		s := v.probe(ctx, client, rawURL)
		res.StatusCode, res.Method, res.Err = s.code, s.method, s.err
		res.Proxy = ""
		if px != nil {
			res.Proxy = safeurl.Redact(px)
		}
		switch s.verdict {
		case verdictValid:
			res.Outcome, res.Valid = OutcomeValid, true
			return res
		case verdictInvalid:
			res.Outcome = OutcomeInvalid
			return res
		case verdictRetry:
			v.Metrics.Retry429()
			v.Log.Debug().Str("url", rawURL).Int("attempt", attempt).Msg("429, backing off")
			if !sleepCtx(ctx, v.Backoff) {
				res.Outcome, res.Err = OutcomeError, ctx.Err()
				return res
			}
		case verdictBlocked:
			if !nextProxy() {
				res.Outcome = OutcomeInvalid
				return res
			}
			v.Log.Debug().Str("url", rawURL).Int("status", s.code).Str("proxy", safeurl.Redact(px)).Msg("blocked, rotating proxy")
		case verdictTransport:
			if ctx.Err() != nil {
				res.Outcome, res.Err = OutcomeError, ctx.Err()
				return res
			}
			v.Proxies.MarkBad(px)
			if !nextProxy() {
				res.Outcome = OutcomeInvalid
				if px != nil {
					res.Outcome = OutcomeError
				}
				return res
			}
			v.Log.Debug().Err(s.err).Str("url", rawURL).Str("proxy", safeurl.Redact(px)).Msg("request failed, rotating proxy")
		}
	}
	res.Outcome = OutcomeSkipped
	return res
}

// probe runs one attempt: HEAD, then GET when HEAD is inconclusive.
func (v *Validator) probe(ctx context.Context, client *http.Client, rawURL string) step {
	t0 := time.Now()
	resp, err := v.do(ctx, client, http.MethodHead, rawURL)
	if err != nil {
		v.Metrics.ObserveProbe(http.MethodHead, "error", time.Since(t0))
		return step{verdict: verdictTransport, method: http.MethodHead, err: err}
	}
	drain(resp)
	switch resp.StatusCode {
	case http.StatusOK:
		v.Metrics.ObserveProbe(http.MethodHead, "valid", time.Since(t0))
		if !v.VerifyPlaylist {
			return step{verdict: verdictValid, code: resp.StatusCode, method: http.MethodHead}
		}
	case http.StatusNotFound:
		v.Metrics.ObserveProbe(http.MethodHead, "invalid", time.Since(t0))
		return step{verdict: verdictInvalid, code: resp.StatusCode, method: http.MethodHead}
	case http.StatusTooManyRequests:
		v.Metrics.ObserveProbe(http.MethodHead, "retry", time.Since(t0))
		return step{verdict: verdictRetry, code: resp.StatusCode, method: http.MethodHead}
	default:
		v.Metrics.ObserveProbe(http.MethodHead, "fallback", time.Since(t0))
	}
	return v.probeGET(ctx, client, rawURL)
}

func (v *Validator) probeGET(ctx context.Context, client *http.Client, rawURL string) step {
	t0 := time.Now()
	resp, err := v.do(ctx, client, http.MethodGet, rawURL)
	if err != nil {
		v.Metrics.ObserveProbe(http.MethodGet, "error", time.Since(t0))
		return step{verdict: verdictTransport, method: http.MethodGet, err: err}
	}
	defer resp.Body.Close()
	s := step{code: resp.StatusCode, method: http.MethodGet}
	switch resp.StatusCode {
	case http.StatusOK:
		s.verdict = verdictValid
		if v.VerifyPlaylist {
			if err := verifyHLS(resp.Body); err != nil {
				s.verdict, s.err = verdictInvalid, err
			}
		}
	case http.StatusTooManyRequests:
		s.verdict = verdictRetry
	default:
		s.verdict = verdictInvalid
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, previewLimit))
		if isBlocked(resp.StatusCode, resp.Header, preview) {
			s.verdict = verdictBlocked
		}
	}
	v.Metrics.ObserveProbe(http.MethodGet, s.verdict.String(), time.Since(t0))
	return s
}

func (v *Validator) do(ctx context.Context, client *http.Client, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	httpclient.ApplyHeaders(req, v.UserAgent, v.Headers)
	return client.Do(req)
}

// verifyHLS decodes the head of body as an HLS playlist (master or media).
func verifyHLS(body io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(body, verifyLimit))
	if err != nil {
		return fmt.Errorf("read playlist: %w", err)
	}
	if _, _, err := m3u8.DecodeFrom(bytes.NewReader(data), false); err != nil {
		return fmt.Errorf("not an HLS playlist: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, previewLimit))
	resp.Body.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
