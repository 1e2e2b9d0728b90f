package scrape

import (
	"context"
	"net/http"

	"github.com/snapetech/iptvmirror/internal/fileutil"
	"github.com/snapetech/iptvmirror/internal/httpclient"
)

// FetchToFile GETs rawURL with browser headers and writes the decoded body to path.
// Any status other than 200 is an error and leaves path untouched.
func FetchToFile(ctx context.Context, client *http.Client, rawURL, path, userAgent string) (int, error) {
	body, err := httpclient.GetBody(ctx, client, rawURL, userAgent, httpclient.BrowserHeaders)
	if err != nil {
		return 0, err
	}
	if err := fileutil.WriteFileAtomic(path, body); err != nil {
		return 0, err
	}
	return len(body), nil
}
