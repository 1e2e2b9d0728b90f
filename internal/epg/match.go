package epg

import (
	"sort"
	"strings"
	"unicode"
)

var noiseTokens = map[string]struct{}{
	"hd": {}, "uhd": {}, "fhd": {}, "sd": {}, "4k": {},
	"us": {}, "usa": {}, "uk": {}, "ca": {}, "canada": {}, "cdn": {},
	"hq": {}, "vip": {}, "backup": {}, "raw": {}, "east": {},
}

// NormalizeName lowercases s, splits on anything that is not a letter or digit,
// drops quality/region tokens and the word "channel", and joins what is left.
// "ESPN 2 HD (USA)" and "espn2.us" both become "espn2".
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	toks := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := toks[:0]
	for _, t := range toks {
		if _, drop := noiseTokens[t]; drop {
			continue
		}
		out = append(out, t)
	}
	return strings.ReplaceAll(strings.Join(out, ""), "channel", "")
}

var searchWordReplacer = []string{"channel", "hdtv", "tv", " hd", "2", "sports", "1", "usa"}

// SearchWord reduces a directory-page channel name to the fragment used for fuzzy
// EPG and logo lookups. Removals apply in sequence, so "hdtv" goes before "tv".
func SearchWord(name string) string {
	w := strings.ToLower(name)
	for _, r := range searchWordReplacer {
		w = strings.ReplaceAll(w, r, "")
	}
	return strings.TrimSpace(w)
}

// Index answers name lookups over a set of XMLTV channels.
type Index struct {
	channels []Channel
	keys     [][]string // normalized ID + display names per channel
	byName   map[string][]int
}

func NewIndex(channels []Channel) *Index {
	idx := &Index{channels: channels, keys: make([][]string, len(channels)), byName: make(map[string][]int)}
	for i, ch := range channels {
		seen := make(map[string]bool)
		for _, n := range append([]string{ch.ID}, ch.DisplayNames...) {
			k := NormalizeName(n)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			idx.keys[i] = append(idx.keys[i], k)
			idx.byName[k] = append(idx.byName[k], i)
		}
	}
	return idx
}

func (x *Index) Len() int { return len(x.channels) }

// Match returns candidate channels for name. Exact normalized-name hits win;
// otherwise channels whose normalized ID or display name contains the search
// word, shortest key first, ties in index order.
func (x *Index) Match(name string) []Channel {
	if x == nil {
		return nil
	}
	if hits := x.byName[NormalizeName(name)]; len(hits) > 0 {
		out := make([]Channel, len(hits))
		for i, h := range hits {
			out[i] = x.channels[h]
		}
		return out
	}
	word := NormalizeName(SearchWord(name))
	if word == "" {
		return nil
	}
	type hit struct {
		i   int
		len int
	}
	var hits []hit
	for i, keys := range x.keys {
		best := -1
		for _, k := range keys {
			if strings.Contains(k, word) && (best < 0 || len(k) < best) {
				best = len(k)
			}
		}
		if best >= 0 {
			hits = append(hits, hit{i: i, len: best})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].len < hits[b].len })
	out := make([]Channel, len(hits))
	for i, h := range hits {
		out[i] = x.channels[h.i]
	}
	return out
}
