// Package scrape pulls channel listings out of directory pages and event APIs.
package scrape

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Stream is one channel link on a directory page.
type Stream struct {
	Number string
	Name   string
}

// ParseAnchors returns a Stream for every <a href> in the page. The number is the
// last "-" separated part of the href with ".php" removed (stream-51.php -> 51).
// Exact duplicates are dropped; page order is kept.
func ParseAnchors(r io.Reader) ([]Stream, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	var out []Stream
	seen := make(map[Stream]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		parts := strings.Split(href, "-")
		st := Stream{
			Number: strings.ReplaceAll(parts[len(parts)-1], ".php", ""),
			Name:   strings.TrimSpace(s.Text()),
		}
		if _, dup := seen[st]; dup {
			return
		}
		seen[st] = struct{}{}
		out = append(out, st)
	})
	return out, nil
}
