package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// GetBody GETs rawURL with DefaultRetryPolicy and returns the decoded body.
// Any final status other than 200 is a *StatusError.
func GetBody(ctx context.Context, client *http.Client, rawURL, ua string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	ApplyHeaders(req, ua, headers)
	resp, err := DoWithRetry(ctx, client, req, DefaultRetryPolicy)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}
	body, err := DecodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", rawURL, err)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return data, nil
}
