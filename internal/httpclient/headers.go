package httpclient

import (
	"math/rand/v2"
	"net/http"
)

// RandomizeUserAgent is the configured value that asks for per-request rotation.
const RandomizeUserAgent = "randomize"

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Windows NT 10.0; rv:109.0) Gecko/20100101 Firefox/115.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1",
}

// RandomUserAgent returns one of the built-in browser user agents.
func RandomUserAgent() string {
	return userAgents[rand.IntN(len(userAgents))]
}

// BrowserHeaders are sent with page fetches so directory pages render the same markup a browser sees.
var BrowserHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
	"Accept-Encoding": "gzip, br",
}

// ApplyHeaders sets the user agent and extra headers on req. ua may be RandomizeUserAgent.
// Later maps override earlier ones.
func ApplyHeaders(req *http.Request, ua string, headers ...map[string]string) {
	switch ua {
	case "":
	case RandomizeUserAgent:
		req.Header.Set("User-Agent", RandomUserAgent())
	default:
		req.Header.Set("User-Agent", ua)
	}
	for _, h := range headers {
		for k, v := range h {
			req.Header.Set(k, v)
		}
	}
}
