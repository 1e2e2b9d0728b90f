package httpclient

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// DecodeBody wraps resp.Body according to Content-Encoding (gzip, br).
// The returned reader does not close resp.Body; callers still close it.
func DecodeBody(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		return brotli.NewReader(resp.Body), nil
	case "gzip", "x-gzip":
		return gzip.NewReader(resp.Body)
	default:
		return resp.Body, nil
	}
}
