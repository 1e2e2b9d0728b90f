package proxypool

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	in := `# free list
1.2.3.4:8080

http://1.2.3.4:8080
socks5://user:pw@5.6.7.8:1080
https://9.9.9.9:443
`
	got, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "http://1.2.3.4:8080", got[0].String())
	require.Equal(t, "socks5", got[1].Scheme)
	require.Equal(t, "user", got[1].User.Username())
	require.Equal(t, "https", got[2].Scheme)
}

func TestParse_rejects(t *testing.T) {
	for _, in := range []string{"ftp://1.2.3.4:21", "http://nohostport"} {
		_, err := Parse(strings.NewReader(in))
		require.Error(t, err, in)
	}
}

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	require.NoError(t, err)
	return u
}

func TestPool_rotationAndExhaustion(t *testing.T) {
	a, b := mustURL(t, "http://a:1"), mustURL(t, "http://b:2")
	p := New([]*url.URL{a, b})

	u1, _ := p.Next()
	u2, _ := p.Next()
	u3, _ := p.Next()
	require.Equal(t, []string{"http://a:1", "http://b:2", "http://a:1"}, []string{u1.String(), u2.String(), u3.String()})

	p.MarkBad(a)
	require.Equal(t, 1, p.Len())
	for i := 0; i < 3; i++ {
		u, err := p.Next()
		require.NoError(t, err)
		require.Equal(t, "http://b:2", u.String())
	}
	p.MarkBad(b)
	_, err := p.Next()
	require.True(t, errors.Is(err, ErrExhausted))

	var nilPool *Pool
	_, err = nilPool.Next()
	require.True(t, errors.Is(err, ErrExhausted))
}

func TestLoad_fileAndURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	require.NoError(t, os.WriteFile(path, []byte("1.1.1.1:80\n2.2.2.2:80\n"), 0o644))
	p, err := Load(context.Background(), nil, path)
	require.NoError(t, err)
	require.Equal(t, 2, p.Len())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("3.3.3.3:3128\n"))
	}))
	defer srv.Close()
	p, err = Load(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("# none\n"), 0o644))
	_, err = Load(context.Background(), nil, empty)
	require.Error(t, err)
}

// A plain httptest server acts as a forward proxy: requests for absolute URIs arrive at it.
func TestClientFor_httpProxy(t *testing.T) {
	var seen string
	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.String()
		w.WriteHeader(http.StatusOK)
	}))
	defer proxySrv.Close()

	c, err := ClientFor(mustURL(t, proxySrv.URL), 5*time.Second)
	require.NoError(t, err)
	resp, err := c.Get("http://mirror.invalid/premium1/mono.m3u8")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "http://mirror.invalid/premium1/mono.m3u8", seen)
}

func TestClientFor_socks5(t *testing.T) {
	c, err := ClientFor(mustURL(t, "socks5://127.0.0.1:1080"), time.Second)
	require.NoError(t, err)
	tr := c.Transport.(*http.Transport)
	require.Nil(t, tr.Proxy)
	require.NotNil(t, tr.DialContext)
}

func TestCheck(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer good.Close()
	blocked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer blocked.Close()

	p := New([]*url.URL{mustURL(t, good.URL), mustURL(t, blocked.URL)})
	res := p.Check(context.Background(), "http://probe.invalid/", 5*time.Second, 2)
	require.Len(t, res, 2)
	require.True(t, res[0].OK)
	require.False(t, res[1].OK)
	require.Equal(t, http.StatusForbidden, res[1].StatusCode)
	require.Equal(t, 1, p.Len())
}
