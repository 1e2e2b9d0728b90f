package premium

import (
	"fmt"
	"strings"
)

// Template is a mirror URL pattern with an {id} placeholder.
// {num} and a bare {} are accepted as aliases.
type Template string

// DefaultTemplates are the current newkso mirrors.
var DefaultTemplates = []Template{
	"https://nfsnew.newkso.ru/nfs/premium{id}/mono.m3u8",
	"https://windnew.newkso.ru/wind/premium{id}/mono.m3u8",
	"https://zekonew.newkso.ru/zeko/premium{id}/mono.m3u8",
	"https://dokko1new.newkso.ru/dokko1/premium{id}/mono.m3u8",
	"https://ddy6new.newkso.ru/ddy6/premium{id}/mono.m3u8",
}

// LegacyTemplates are the older iosplayer/koskoros mirrors.
var LegacyTemplates = []Template{
	"https://dokko1new.iosplayer.ru/dokko1/premium{id}/mono.m3u8",
	"https://windnew.iosplayer.ru/wind/premium{id}/mono.m3u8",
	"https://ddh2new.iosplayer.ru/ddh2/premium{id}/mono.m3u8",
	"https://zekonew.iosplayer.ru/zeko/premium{id}/mono.m3u8",
	"https://ddy6new.iosplayer.ru/ddy6/premium{id}/mono.m3u8",
	"https://nfsnew.koskoros.ru/nfs/premium{id}/mono.m3u8",
}

// LegacyMaxAttempts is the attempt budget the legacy mirrors were probed with.
const LegacyMaxAttempts = 10

// TemplateSet resolves a named set ("default", "legacy").
func TemplateSet(name string) ([]Template, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default", "newkso":
		return DefaultTemplates, nil
	case "legacy":
		return LegacyTemplates, nil
	}
	return nil, fmt.Errorf("unknown template set %q", name)
}

// ParseTemplates converts raw strings, rejecting any without a placeholder.
func ParseTemplates(raw []string) ([]Template, error) {
	out := make([]Template, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		t := Template(s)
		if !t.valid() {
			return nil, fmt.Errorf("template %q has no {id} placeholder", s)
		}
		out = append(out, t)
	}
	return out, nil
}

func (t Template) valid() bool {
	s := string(t)
	return strings.Contains(s, "{id}") || strings.Contains(s, "{num}") || strings.Contains(s, "{}")
}

// URL substitutes id into the template.
func (t Template) URL(id string) string {
	r := strings.NewReplacer("{id}", id, "{num}", id, "{}", id)
	return r.Replace(string(t))
}

// Candidate is one mirror URL to probe for an identifier.
type Candidate struct {
	ID  string
	URL string
}

// Expand builds candidates id-major, template-minor. Duplicate URLs are dropped.
func Expand(ids []string, templates []Template) []Candidate {
	seen := make(map[string]struct{}, len(ids)*len(templates))
	out := make([]Candidate, 0, len(ids)*len(templates))
	for _, id := range ids {
		for _, t := range templates {
			if !t.valid() {
				continue
			}
			u := t.URL(id)
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, Candidate{ID: id, URL: u})
		}
	}
	return out
}

// URLs flattens candidates to their URLs, preserving order.
func URLs(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.URL
	}
	return out
}
