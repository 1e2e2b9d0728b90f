package playlist

import (
	"regexp"
	"strings"

	"github.com/snapetech/iptvmirror/internal/premium"
)

var monoRe = regexp.MustCompile(`premium(\d+)/mono\.m3u8`)

// LinksByID maps premium ID to the first valid link carrying it. Later links for
// the same ID come back in dups; links with no premium<N>/mono.m3u8 in unmatched.
func LinksByID(links []string) (byID map[string]string, dups, unmatched []string) {
	byID = make(map[string]string, len(links))
	for _, l := range links {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		m := monoRe.FindStringSubmatch(l)
		if m == nil {
			unmatched = append(unmatched, l)
			continue
		}
		if _, ok := byID[m[1]]; ok {
			dups = append(dups, l)
			continue
		}
		byID[m[1]] = l
	}
	return byID, dups, unmatched
}

// ReplaceStats counts what ReplaceByID did to the non-comment lines.
type ReplaceStats struct {
	Lines    int
	Replaced int
	Missing  int // had a premium ID with no valid link
	NoID     int
}

// ReplaceByID swaps the URL part of every non-# line whose premium ID is in byID.
// Anything after the first | (player header parameters) is preserved.
func ReplaceByID(lines []string, byID map[string]string) ([]string, ReplaceStats) {
	out := make([]string, len(lines))
	var st ReplaceStats
	for i, line := range lines {
		st.Lines++
		if strings.HasPrefix(line, "#") {
			out[i] = line
			continue
		}
		out[i] = line
		parts := strings.Split(strings.TrimSpace(line), "|")
		u := strings.TrimSpace(parts[0])
		id, ok := premium.IDFromURL(u)
		switch {
		case !ok:
			if u != "" {
				st.NoID++
			}
		case byID[id] != "":
			parts[0] = byID[id]
			out[i] = strings.Join(parts, "|")
			st.Replaced++
		default:
			st.Missing++
		}
	}
	return out, st
}
