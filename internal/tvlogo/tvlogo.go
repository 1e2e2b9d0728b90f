// Package tvlogo reads the file listing embedded in a GitHub tree page of the
// tv-logo repository and finds logo files by channel name.
package tvlogo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/snapetech/iptvmirror/internal/epg"
)

// ErrNoPayload means the page had no embedded react-app data.
var ErrNoPayload = errors.New("tree page has no embedded payload")

const rawBase = "https://raw.githubusercontent.com"

type Item struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	ContentType string `json:"contentType"`
}

// Payload is the subset of the embedded page data the lookups need.
type Payload struct {
	Repo struct {
		OwnerLogin string `json:"ownerLogin"`
		Name       string `json:"name"`
	} `json:"repo"`
	RefInfo struct {
		Name string `json:"name"`
	} `json:"refInfo"`
	Path string `json:"path"`
	Tree struct {
		Items []Item `json:"items"`
	} `json:"tree"`
}

// ExtractPayload finds script[data-target="react-app.embeddedData"] and decodes
// its payload object.
func ExtractPayload(r io.Reader) (*Payload, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse tree page: %w", err)
	}
	sel := doc.Find(`script[data-target="react-app.embeddedData"]`).First()
	if sel.Length() == 0 {
		return nil, ErrNoPayload
	}
	var wrapper struct {
		Payload *Payload `json:"payload"`
	}
	if err := json.Unmarshal([]byte(sel.Text()), &wrapper); err != nil {
		return nil, fmt.Errorf("decode embedded data: %w", err)
	}
	if wrapper.Payload == nil {
		return nil, ErrNoPayload
	}
	return wrapper.Payload, nil
}

// Search returns files whose normalized name (extension dropped) contains the
// normalized word, shortest names first.
func (p *Payload) Search(word string) []Item {
	if p == nil {
		return nil
	}
	w := epg.NormalizeName(word)
	if w == "" {
		return nil
	}
	var out []Item
	for _, it := range p.Tree.Items {
		if it.ContentType != "" && it.ContentType != "file" {
			continue
		}
		if strings.Contains(epg.NormalizeName(stem(it.Name)), w) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].Name) < len(out[j].Name) })
	return out
}

// RawURL is the raw.githubusercontent.com address of it.
func (p *Payload) RawURL(it Item) string {
	itemPath := it.Path
	if itemPath == "" {
		itemPath = path.Join(p.Path, it.Name)
	}
	return strings.Join([]string{rawBase, p.Repo.OwnerLogin, p.Repo.Name, p.RefInfo.Name, strings.TrimPrefix(itemPath, "/")}, "/")
}

func stem(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}
