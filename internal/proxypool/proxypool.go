// Package proxypool loads third-party HTTP/SOCKS5 proxies and rotates probe traffic
// through them when mirrors block direct requests.
package proxypool

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/proxy"

	"github.com/snapetech/iptvmirror/internal/httpclient"
	"github.com/snapetech/iptvmirror/internal/safeurl"
)

// ErrExhausted is returned by Next once every proxy has been marked bad.
var ErrExhausted = errors.New("proxy pool exhausted")

// Parse reads one proxy per line. A bare host:port is treated as http://host:port.
// Blank lines and # comments are skipped; duplicates are dropped.
func Parse(r io.Reader) ([]*url.URL, error) {
	var out []*url.URL
	seen := make(map[string]struct{})
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		if !strings.Contains(s, "://") {
			s = "http://" + s
		}
		u, err := url.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("proxy list line %d: %w", line, err)
		}
		switch u.Scheme {
		case "http", "https", "socks5", "socks5h":
		default:
			return nil, fmt.Errorf("proxy list line %d: unsupported scheme %q", line, u.Scheme)
		}
		if u.Host == "" || u.Port() == "" {
			return nil, fmt.Errorf("proxy list line %d: %q needs host:port", line, s)
		}
		key := u.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, u)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Load reads a proxy list from a local file or an http(s) URL.
func Load(ctx context.Context, client *http.Client, source string) (*Pool, error) {
	var data []byte
	var err error
	if safeurl.IsHTTPOrHTTPS(source) {
		data, err = httpclient.GetBody(ctx, client, source, "", nil)
	} else {
		data, err = os.ReadFile(filepath.Clean(source))
	}
	if err != nil {
		return nil, fmt.Errorf("load proxy list %s: %w", source, err)
	}
	proxies, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(proxies) == 0 {
		return nil, fmt.Errorf("proxy list %s: no proxies", source)
	}
	return New(proxies), nil
}

// Pool hands out proxies round-robin, skipping ones marked bad.
type Pool struct {
	mu      sync.Mutex
	proxies []*url.URL
	bad     map[string]bool
	next    int
}

func New(proxies []*url.URL) *Pool {
	return &Pool{proxies: proxies, bad: make(map[string]bool)}
}

// Len is the number of proxies still in rotation.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies) - len(p.bad)
}

// Next returns the next healthy proxy.
func (p *Pool) Next() (*url.URL, error) {
	if p == nil {
		return nil, ErrExhausted
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for range p.proxies {
		u := p.proxies[p.next%len(p.proxies)]
		p.next++
		if !p.bad[u.String()] {
			return u, nil
		}
	}
	return nil, ErrExhausted
}

// MarkBad removes u from rotation for the rest of the run.
func (p *Pool) MarkBad(u *url.URL) {
	if p == nil || u == nil {
		return
	}
	p.mu.Lock()
	p.bad[u.String()] = true
	p.mu.Unlock()
}

// Client returns a client whose requests go through u.
func (p *Pool) Client(u *url.URL, timeout time.Duration) (*http.Client, error) {
	return ClientFor(u, timeout)
}

// ClientFor builds a client routed via u: http.ProxyURL for HTTP(S) proxies,
// an x/net/proxy dialer for SOCKS5.
func ClientFor(u *url.URL, timeout time.Duration) (*http.Client, error) {
	t := httpclient.NewTransport()
	switch u.Scheme {
	case "http", "https":
		t.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		var auth *proxy.Auth
		if u.User != nil {
			pw, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: pw}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks5 proxy %s: %w", u.Host, err)
		}
		t.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			t.DialContext = cd.DialContext
		} else {
			t.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	return &http.Client{Timeout: timeout, Transport: t}, nil
}
