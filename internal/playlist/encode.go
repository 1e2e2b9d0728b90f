package playlist

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/jamesnetherton/m3u"
)

// Entry is a generated playlist entry.
type Entry struct {
	Name    string
	TVGID   string
	TVGName string
	TVGLogo string
	Group   string
	URL     string
	// Headers are appended to URL as |Key=Value&... for players like TiviMate.
	Headers map[string]string
}

// Track converts e to an m3u track with tags in tvg-id, tvg-name, tvg-logo, group-title order.
func (e Entry) Track() m3u.Track {
	t := m3u.Track{Name: e.Name, Length: -1, URI: URLWithHeaders(e.URL, e.Headers)}
	for _, tag := range []m3u.Tag{
		{Name: "tvg-id", Value: e.TVGID},
		{Name: "tvg-name", Value: e.TVGName},
		{Name: "tvg-logo", Value: e.TVGLogo},
		{Name: "group-title", Value: e.Group},
	} {
		if tag.Value != "" {
			tag.Value = strings.ReplaceAll(tag.Value, `"`, "'")
			t.Tags = append(t.Tags, tag)
		}
	}
	return t
}

// NewPlaylist wraps entries as an m3u playlist.
func NewPlaylist(entries []Entry) m3u.Playlist {
	pl := m3u.Playlist{Tracks: make([]m3u.Track, 0, len(entries))}
	for _, e := range entries {
		pl.Tracks = append(pl.Tracks, e.Track())
	}
	return pl
}

// Encode writes pl as an extended M3U.
func Encode(w io.Writer, pl m3u.Playlist) error {
	return m3u.MarshallInto(pl, bufio.NewWriter(w))
}

// URLWithHeaders renders url|K1=V1&K2=V2 with keys sorted. No headers returns url unchanged.
func URLWithHeaders(url string, headers map[string]string) string {
	if len(headers) == 0 {
		return url
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + headers[k]
	}
	return url + "|" + strings.Join(parts, "&")
}
