package playlist

import (
	"encoding/base64"
	"sort"
	"strings"
)

// ProxyEntry is a relay playlist entry: its #EXTINF line and the /watch/ URL.
type ProxyEntry struct {
	ExtInf string
	URL    string
}

// ProxyMap maps an original stream URL to the relay entry that serves it.
type ProxyMap map[string]ProxyEntry

// BuildProxyMap reads #EXTINF + /watch/<base64>.m3u8 pairs from a relay playlist.
// Entries whose token does not decode are skipped.
func BuildProxyMap(lines []string) ProxyMap {
	m := make(ProxyMap)
	for i := 0; i+1 < len(lines); i++ {
		if !strings.HasPrefix(lines[i], "#EXTINF") {
			continue
		}
		u := lines[i+1]
		_, rest, ok := strings.Cut(u, "/watch/")
		if !ok {
			continue
		}
		token, _, _ := strings.Cut(rest, ".m3u8")
		orig, ok := decodeToken(token)
		if !ok {
			continue
		}
		m[orig] = ProxyEntry{ExtInf: lines[i], URL: u}
	}
	return m
}

// decodeToken tries standard then URL-safe base64, with or without padding.
func decodeToken(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding} {
		b, err := enc.DecodeString(token)
		if err != nil {
			b, err = enc.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(token, "="))
		}
		if err != nil {
			continue
		}
		if s := strings.TrimSpace(string(b)); s != "" {
			return s, true
		}
	}
	return "", false
}

// AssembleStats counts Assemble's rewrites.
type AssembleStats struct {
	Replaced int
	Appended int
}

// Assemble replaces each #EXTINF + URL pair whose URL is valid and present in pm
// with the relay's #EXTINF and URL. With appendMissing, relay entries for valid
// URLs that never appeared in the playlist are appended in URL order.
func Assemble(lines []string, valid map[string]bool, pm ProxyMap, appendMissing bool) ([]string, AssembleStats) {
	var st AssembleStats
	out := make([]string, 0, len(lines))
	present := make(map[string]bool)
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if strings.HasPrefix(line, "#EXTINF") && i+1 < len(lines) {
			u := lines[i+1]
			present[u] = true
			if e, ok := pm[u]; ok && valid[u] {
				out = append(out, e.ExtInf, e.URL)
				st.Replaced++
				i++
				continue
			}
		}
		out = append(out, line)
	}
	if !appendMissing {
		return out, st
	}
	var missing []string
	for orig := range pm {
		if valid[orig] && !present[orig] {
			missing = append(missing, orig)
		}
	}
	sort.Strings(missing)
	for _, orig := range missing {
		e := pm[orig]
		out = append(out, e.ExtInf, e.URL)
		st.Appended++
	}
	return out, st
}
