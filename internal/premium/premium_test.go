package premium

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractIDs(t *testing.T) {
	in := `#EXTM3U
#EXTINF:-1 tvg-id="a",ESPN
https://old.example/ddy6/premium44/mono.m3u8
#EXTINF:-1,Two
https://x.example/premium9/mono.m3u8|Referer=https://r/
#EXTINF:-1,Dup
https://y.example/premium44/mono.m3u8
#EXTINF:-1,NotMono
https://z.example/premium300/index.m3u8
#EXTINF:-1,Big
https://z.example/premium120/mono.m3u8
`
	ids, err := ExtractIDs(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, []string{"9", "44", "120"}, ids)
}

func TestExtractIDs_none(t *testing.T) {
	_, err := ExtractIDs(strings.NewReader("#EXTM3U\nhttp://a/b.m3u8\n"))
	require.True(t, errors.Is(err, ErrNoIDs))
}

func TestIDFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://a/nfs/premium51/mono.m3u8", "51", true},
		{"https://a/lb/premium7/index.m3u8", "7", true},
		{"https://a/stream.m3u8", "", false},
	}
	for _, tt := range tests {
		got, ok := IDFromURL(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("IDFromURL(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExpand(t *testing.T) {
	tpls := []Template{
		"https://a.example/premium{id}/mono.m3u8",
		"https://b.example/premium{num}/mono.m3u8",
		"https://a.example/premium{}/mono.m3u8", // same URL as the first
		"https://c.example/static.m3u8",          // no placeholder
	}
	got := Expand([]string{"1", "2"}, tpls)
	require.Equal(t, []Candidate{
		{ID: "1", URL: "https://a.example/premium1/mono.m3u8"},
		{ID: "1", URL: "https://b.example/premium1/mono.m3u8"},
		{ID: "2", URL: "https://a.example/premium2/mono.m3u8"},
		{ID: "2", URL: "https://b.example/premium2/mono.m3u8"},
	}, got)
	require.Len(t, URLs(got), 4)
}

func TestTemplateSet(t *testing.T) {
	def, err := TemplateSet("")
	require.NoError(t, err)
	require.Len(t, def, 5)
	legacy, err := TemplateSet("legacy")
	require.NoError(t, err)
	require.Len(t, legacy, 6)
	_, err = TemplateSet("nope")
	require.Error(t, err)
}

func TestParseTemplates(t *testing.T) {
	got, err := ParseTemplates([]string{" https://a/premium{id}/mono.m3u8 ", ""})
	require.NoError(t, err)
	require.Equal(t, []Template{"https://a/premium{id}/mono.m3u8"}, got)
	_, err = ParseTemplates([]string{"https://a/fixed.m3u8"})
	require.Error(t, err)
}
