package scrape

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/require"

	"github.com/snapetech/iptvmirror/internal/epg"
	"github.com/snapetech/iptvmirror/internal/tvlogo"
)

const channelsPage = `<html><body>
<div class="grid">
  <a href="/stream/stream-51.php"> ABC USA </a>
  <a href="/stream/stream-44.php">ESPN USA</a>
  <a href="/stream/stream-44.php">ESPN USA</a>
  <a href="/stream/stream-44.php">ESPN Mirror</a>
  <a href="/24-7-channels.php">24/7 Channels</a>
  <a>no href</a>
</div></body></html>`

func TestParseAnchors(t *testing.T) {
	got, err := ParseAnchors(strings.NewReader(channelsPage))
	require.NoError(t, err)
	require.Equal(t, []Stream{
		{Number: "51", Name: "ABC USA"},
		{Number: "44", Name: "ESPN USA"},
		{Number: "44", Name: "ESPN Mirror"},
		{Number: "channels", Name: "24/7 Channels"},
	}, got)
}

func TestFetchToFile(t *testing.T) {
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	bw.Write([]byte(channelsPage))
	bw.Close()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		require.Contains(t, r.Header.Get("Accept-Encoding"), "br")
		w.Header().Set("Content-Encoding", "br")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "247channels.html")
	n, err := FetchToFile(context.Background(), srv.Client(), srv.URL+"/24-7-channels.php", path, "Mozilla/5.0")
	require.NoError(t, err)
	require.Equal(t, len(channelsPage), n)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, channelsPage, string(data))

	_, err = FetchToFile(context.Background(), srv.Client(), srv.URL+"/missing", filepath.Join(t.TempDir(), "x"), "")
	require.Error(t, err)
}

const eventsJSON = `{"streams":[
 {"category":"Boxing","streams":[
   {"name":"Fight Night: Main Card","poster":"https://img/p1.png","iframe":"https://ppv/embed/1","starts_at":900,"ends_at":1100,"always_live":0},
   {"name":"Old Fight","iframe":"https://ppv/embed/2","starts_at":100,"ends_at":200,"always_live":0}
 ]},
 {"category":"","streams":[
   {"name":"24/7 Replays","iframe":"https://ppv/embed/3","starts_at":0,"ends_at":0,"always_live":true}
 ]},
 {"category":"Boxing","streams":[
   {"name":"Later Card","iframe":"https://ppv/embed/4","starts_at":5000,"ends_at":6000,"always_live":0}
 ]}
]}`

func TestFetchEventsAndFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(eventsJSON))
	}))
	defer srv.Close()

	cats, err := FetchEvents(context.Background(), srv.Client(), srv.URL, "")
	require.NoError(t, err)
	require.Len(t, cats, 3)

	events := FilterCurrent(cats, time.Unix(1000, 0))
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Category + "/" + e.Name
	}
	require.Equal(t, []string{"Boxing/Fight Night: Main Card", "Boxing/Later Card", "Unknown/24/7 Replays"}, names)

	entries := EventEntries(events, "https://ppv.wtf", "https://ppv.wtf/")
	require.Equal(t, "fight.night.main.card", entries[0].TVGID)
	require.Equal(t, "https://img/p1.png", entries[0].TVGLogo)
	require.Equal(t, "https://ppv.wtf", entries[0].Headers["Origin"])
}

func TestSanitizeTVGID(t *testing.T) {
	tests := map[string]string{
		"Fight Night: Main Card": "fight.night.main.card",
		"UFC 300 -  Prelims":     "ufc.300.prelims",
		"Ñandú Sports!":          "ñandú.sports",
		"Team\u00a0A vs B":       "team.a.vs.b",
		"Late\u2003Show":         "late.show",
	}
	for in, want := range tests {
		if got := SanitizeTVGID(in); got != want {
			t.Errorf("SanitizeTVGID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDaddyBuilder(t *testing.T) {
	idx := epg.NewIndex([]epg.Channel{
		{ID: "ABC.us", DisplayNames: []string{"ABC"}},
		{ID: "ESPN.us", DisplayNames: []string{"ESPN"}},
	})
	logos, err := tvlogo.ExtractPayload(strings.NewReader(`<script data-target="react-app.embeddedData">{"payload":{"repo":{"ownerLogin":"o","name":"r"},"refInfo":{"name":"main"},"path":"us","tree":{"items":[{"name":"espn-us.png","path":"us/espn-us.png","contentType":"file"}]}}}</script>`))
	require.NoError(t, err)

	b := DaddyBuilder{Index: idx, Logos: logos, StreamURL: "https://x/lb/premium{id}/index.m3u8", Group: "USA (DADDY LIVE)"}
	res := b.Build([]Stream{
		{Number: "51", Name: "ABC USA"},
		{Number: "44", Name: "ESPN USA"},
		{Number: "45", Name: "ESPN"},
		{Number: "99", Name: "Unknown Thing"},
		{Number: "channels", Name: "24/7 Channels"},
	})
	require.Len(t, res.Entries, 3)
	require.Equal(t, "ABC.us", res.Entries[0].TVGID)
	require.Empty(t, res.Entries[0].TVGLogo)
	require.Equal(t, "https://x/lb/premium44/index.m3u8", res.Entries[1].URL)
	require.Equal(t, "https://raw.githubusercontent.com/o/r/main/us/espn-us.png", res.Entries[1].TVGLogo)
	require.Equal(t, []string{"ABC.us", "ESPN.us", "ESPN.us"}, res.TVGIDs)
	require.Len(t, res.Unmatched, 1)
	require.Len(t, res.Ignored, 1)
}
