package playlist

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKeepsContent(t *testing.T) {
	lines, err := Parse(strings.NewReader("#EXTM3U\r\n  indented  \n\nlast"))
	require.NoError(t, err)
	require.Equal(t, []string{"#EXTM3U", "  indented  ", "", "last"}, lines)
}

func TestWriteFileAndLoadLinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.m3u8")
	require.NoError(t, WriteFile(path, []string{"https://a/premium1/mono.m3u8", "", "  https://b/premium2/mono.m3u8 "}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(data), "\n"))

	links, err := LoadLinks(path)
	require.NoError(t, err)
	require.Equal(t, []string{"https://a/premium1/mono.m3u8", "https://b/premium2/mono.m3u8"}, links)
}

func TestLinksByID(t *testing.T) {
	byID, dups, unmatched := LinksByID([]string{
		"https://nfs/premium1/mono.m3u8",
		"https://wind/premium1/mono.m3u8",
		"https://wind/premium2/mono.m3u8",
		"https://other/stream.m3u8",
	})
	require.Equal(t, map[string]string{
		"1": "https://nfs/premium1/mono.m3u8",
		"2": "https://wind/premium2/mono.m3u8",
	}, byID)
	require.Equal(t, []string{"https://wind/premium1/mono.m3u8"}, dups)
	require.Equal(t, []string{"https://other/stream.m3u8"}, unmatched)
}

func TestReplaceByID(t *testing.T) {
	in := []string{
		"#EXTM3U",
		`#EXTINF:-1 tvg-id="espn",ESPN`,
		"https://old/lb/premium44/index.m3u8|Referer=https://r/&Origin=https://o",
		`#EXTINF:-1,Missing`,
		"https://old/premium99/mono.m3u8",
		`#EXTINF:-1,Other`,
		"https://plain/stream.m3u8",
	}
	out, st := ReplaceByID(in, map[string]string{"44": "https://new/ddy6/premium44/mono.m3u8"})
	require.Equal(t, "https://new/ddy6/premium44/mono.m3u8|Referer=https://r/&Origin=https://o", out[2])
	require.Equal(t, in[4], out[4])
	require.Equal(t, in[6], out[6])
	require.Equal(t, in[1], out[1])
	require.Equal(t, ReplaceStats{Lines: 7, Replaced: 1, Missing: 1, NoID: 1}, st)
}

func TestReplaceByIDKeepsUnmatchedLinesVerbatim(t *testing.T) {
	in := []string{
		"http://other/x.m3u8 |Referer=a",
		" https://old/premium7/mono.m3u8 |Origin=b",
		"  ",
	}
	out, st := ReplaceByID(in, map[string]string{})
	require.Equal(t, in, out)
	require.Equal(t, ReplaceStats{Lines: 3, Missing: 1, NoID: 1}, st)
}

func watchURL(orig string, enc *base64.Encoding) string {
	return "https://relay.example/watch/" + enc.EncodeToString([]byte(orig)) + ".m3u8"
}

func TestBuildProxyMap(t *testing.T) {
	a := "https://nfs/premium1/mono.m3u8"
	b := "https://wind/premium2/mono.m3u8?x=1"
	lines := []string{
		"#EXTM3U",
		`#EXTINF:-1 tvg-logo="l",Channel A`,
		watchURL(a, base64.StdEncoding),
		`#EXTINF:-1,Channel B`,
		watchURL(b, base64.RawURLEncoding),
		`#EXTINF:-1,Broken`,
		"https://relay.example/watch/%%%.m3u8",
		`#EXTINF:-1,Direct`,
		"https://direct/stream.m3u8",
	}
	pm := BuildProxyMap(lines)
	require.Len(t, pm, 2)
	require.Equal(t, ProxyEntry{ExtInf: lines[1], URL: lines[2]}, pm[a])
	require.Equal(t, lines[4], pm[b].URL)
}

func TestAssemble(t *testing.T) {
	a := "https://nfs/premium1/mono.m3u8"
	b := "https://nfs/premium2/mono.m3u8"
	c := "https://nfs/premium3/mono.m3u8"
	pm := ProxyMap{
		a: {ExtInf: "#EXTINF:-1,Relay A", URL: "https://relay/watch/A.m3u8"},
		b: {ExtInf: "#EXTINF:-1,Relay B", URL: "https://relay/watch/B.m3u8"},
		c: {ExtInf: "#EXTINF:-1,Relay C", URL: "https://relay/watch/C.m3u8"},
	}
	lines := []string{
		"#EXTM3U",
		"#EXTINF:-1,A",
		a,
		"#EXTINF:-1,B",
		b,
	}
	valid := map[string]bool{a: true, c: true}

	out, st := Assemble(lines, valid, pm, false)
	require.Equal(t, []string{"#EXTM3U", "#EXTINF:-1,Relay A", "https://relay/watch/A.m3u8", "#EXTINF:-1,B", b}, out)
	require.Equal(t, AssembleStats{Replaced: 1}, st)

	out, st = Assemble(lines, valid, pm, true)
	require.Equal(t, AssembleStats{Replaced: 1, Appended: 1}, st)
	require.Equal(t, []string{"#EXTINF:-1,Relay C", "https://relay/watch/C.m3u8"}, out[len(out)-2:])
}

func TestEncode(t *testing.T) {
	entries := []Entry{
		{
			Name: "ESPN", TVGID: "ESPN.us", TVGName: "ESPN", TVGLogo: "https://logo/espn.png",
			Group: "USA (DADDY LIVE)", URL: "https://x/lb/premium44/index.m3u8",
		},
		{
			Name: "Fight Night", TVGID: "fight.night", Group: "Boxing", URL: "https://ppv/embed/1",
			Headers: map[string]string{"Referer": "https://ppv.wtf/", "Origin": "https://ppv.wtf"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, NewPlaylist(entries)))
	want := `#EXTM3U
#EXTINF:-1 tvg-id="ESPN.us" tvg-name="ESPN" tvg-logo="https://logo/espn.png" group-title="USA (DADDY LIVE)", ESPN
https://x/lb/premium44/index.m3u8
#EXTINF:-1 tvg-id="fight.night" group-title="Boxing", Fight Night
https://ppv/embed/1|Origin=https://ppv.wtf&Referer=https://ppv.wtf/
`
	require.Equal(t, want, buf.String())
}

func TestEncodeQuotesInTags(t *testing.T) {
	var buf bytes.Buffer
	e := Entry{Name: `The "Big" Fight`, TVGName: `The "Big" Fight`, URL: "https://ppv/embed/2"}
	require.NoError(t, Encode(&buf, NewPlaylist([]Entry{e})))
	require.Equal(t, "#EXTM3U\n#EXTINF:-1 tvg-name=\"The 'Big' Fight\", The \"Big\" Fight\nhttps://ppv/embed/2\n", buf.String())
}

func TestURLWithHeaders(t *testing.T) {
	require.Equal(t, "u", URLWithHeaders("u", nil))
	require.Equal(t, "u|A=1&B=2", URLWithHeaders("u", map[string]string{"B": "2", "A": "1"}))
}
