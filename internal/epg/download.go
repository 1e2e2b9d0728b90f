package epg

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/snapetech/iptvmirror/internal/fileutil"
	"github.com/snapetech/iptvmirror/internal/httpclient"
	"github.com/snapetech/iptvmirror/internal/metrics"
)

// DownloadResult reports one feed download.
type DownloadResult struct {
	Source Source
	Path   string
	Bytes  int64
	Gzip   bool
	Took   time.Duration
	Err    error
}

// Downloader fetches feeds concurrently. A failed feed never stops the others.
type Downloader struct {
	Client    *http.Client
	Workers   int
	UserAgent string
	Metrics   *metrics.Metrics
	Log       zerolog.Logger
}

// Download stores every source under dir, decompressing gzip bodies (detected by
// magic bytes, not by URL). Results keep source order.
func (d *Downloader) Download(ctx context.Context, dir string, sources []Source) []DownloadResult {
	workers := d.Workers
	if workers <= 0 {
		workers = 4
	}
	out := make([]DownloadResult, len(sources))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, src := range sources {
		g.Go(func() error {
			start := time.Now()
			path := filepath.Join(dir, filepath.Base(src.Filename))
			n, gz, err := d.fetchOne(ctx, src.URL, path)
			out[i] = DownloadResult{Source: src, Path: path, Bytes: n, Gzip: gz, Took: time.Since(start), Err: err}
			d.Metrics.EPGDownload(err == nil)
			if err != nil {
				d.Log.Warn().Err(err).Str("file", src.Filename).Str("url", src.URL).Msg("epg download failed")
			} else {
				d.Log.Debug().Str("file", src.Filename).Int64("bytes", n).Bool("gzip", gz).Msg("epg downloaded")
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (d *Downloader) fetchOne(ctx context.Context, rawURL, path string) (int64, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, false, err
	}
	httpclient.ApplyHeaders(req, d.UserAgent, map[string]string{"Accept-Encoding": "gzip, br"})
	resp, err := httpclient.DoWithRetry(ctx, d.Client, req, httpclient.DefaultRetryPolicy)
	if err != nil {
		return 0, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, false, &httpclient.StatusError{URL: rawURL, Code: resp.StatusCode}
	}
	body, err := httpclient.DecodeBody(resp)
	if err != nil {
		return 0, false, fmt.Errorf("decode: %w", err)
	}
	r, gz, err := maybeGunzip(body)
	if err != nil {
		return 0, gz, err
	}
	var n int64
	err = fileutil.WriteAtomic(path, func(w io.Writer) error {
		var cerr error
		n, cerr = io.Copy(w, r)
		return cerr
	})
	return n, gz, err
}

// maybeGunzip wraps r in a gzip reader when it starts with the gzip magic bytes.
func maybeGunzip(r io.Reader) (io.Reader, bool, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, false, err
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, true, fmt.Errorf("gzip: %w", err)
		}
		return zr, true, nil
	}
	return br, false, nil
}
