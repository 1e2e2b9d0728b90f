package validate

import (
	"net/http"
	"strings"
)

// isBlocked reports whether a non-200 GET looks like the mirror refusing this
// client (geo/IP block or Cloudflare challenge) rather than the stream being gone.
// Only 403/451 count on status alone; other codes need a Cloudflare server header
// or challenge text, since some mirrors use odd codes for "stream offline".
func isBlocked(code int, h http.Header, preview []byte) bool {
	if code == http.StatusForbidden || code == http.StatusUnavailableForLegalReasons {
		return true
	}
	server := strings.ToLower(strings.TrimSpace(h.Get("Server")))
	isCFServer := server == "cloudflare"
	body := strings.ToLower(string(preview))
	challenge := strings.Contains(body, "checking your browser") ||
		strings.Contains(body, "cf-chl") ||
		strings.Contains(body, "ray id")
	switch code {
	case http.StatusServiceUnavailable, 520, 521, 524:
		if isCFServer || challenge {
			return true
		}
	}
	return isCFServer && h.Get("Cf-Mitigated") != ""
}
