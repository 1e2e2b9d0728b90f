package scrape

import (
	"strings"
	"unicode"

	"github.com/snapetech/iptvmirror/internal/epg"
	"github.com/snapetech/iptvmirror/internal/playlist"
	"github.com/snapetech/iptvmirror/internal/premium"
	"github.com/snapetech/iptvmirror/internal/tvlogo"
)

// DaddyBuilder turns directory-page streams into playlist entries, attaching an
// EPG id and a logo found by name.
type DaddyBuilder struct {
	Index     *epg.Index
	Logos     *tvlogo.Payload // nil: no logos
	StreamURL premium.Template
	Group     string
}

// DaddyResult is the outcome of Build.
type DaddyResult struct {
	Entries []playlist.Entry
	// TVGIDs holds one EPG id per entry, in entry order.
	TVGIDs    []string
	Unmatched []Stream // no EPG channel found
	Ignored   []Stream // href did not end in a stream number
}

// Build keeps only streams with an EPG match; a missing logo leaves tvg-logo empty.
func (b DaddyBuilder) Build(streams []Stream) DaddyResult {
	var res DaddyResult
	for _, s := range streams {
		if !isNumber(s.Number) || s.Name == "" {
			res.Ignored = append(res.Ignored, s)
			continue
		}
		matches := b.Index.Match(s.Name)
		if len(matches) == 0 {
			res.Unmatched = append(res.Unmatched, s)
			continue
		}
		id := matches[0].ID
		e := playlist.Entry{
			Name:    s.Name,
			TVGID:   id,
			TVGName: s.Name,
			Group:   b.Group,
			URL:     b.StreamURL.URL(s.Number),
		}
		if logos := b.Logos.Search(epg.SearchWord(s.Name)); len(logos) > 0 {
			e.TVGLogo = b.Logos.RawURL(logos[0])
		}
		res.Entries = append(res.Entries, e)
		res.TVGIDs = append(res.TVGIDs, id)
	}
	return res
}

func isNumber(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) < 0
}
