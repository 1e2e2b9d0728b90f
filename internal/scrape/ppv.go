package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/snapetech/iptvmirror/internal/httpclient"
	"github.com/snapetech/iptvmirror/internal/playlist"
)

// EventsResponse is the events API payload.
type EventsResponse struct {
	Streams []Category `json:"streams"`
}

type Category struct {
	Category string  `json:"category"`
	Streams  []Event `json:"streams"`
}

// Event is one scheduled or always-on stream.
type Event struct {
	Name       string   `json:"name"`
	Poster     string   `json:"poster"`
	IFrame     string   `json:"iframe"`
	StartsAt   int64    `json:"starts_at"`
	EndsAt     int64    `json:"ends_at"`
	AlwaysLive liveFlag `json:"always_live"`

	// Category is filled in by FilterCurrent.
	Category string `json:"-"`
}

// liveFlag accepts 0/1 and false/true.
type liveFlag bool

func (f *liveFlag) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "1", "true":
		*f = true
	case "0", "false", "null":
		*f = false
	default:
		return fmt.Errorf("always_live: unexpected %s", b)
	}
	return nil
}

// FetchEvents downloads and decodes the events API.
func FetchEvents(ctx context.Context, client *http.Client, apiURL, userAgent string) ([]Category, error) {
	body, err := httpclient.GetBody(ctx, client, apiURL, userAgent, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	var resp EventsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return resp.Streams, nil
}

// FilterCurrent keeps always-live, running and upcoming events, tagged with their
// category ("Unknown" when empty). Categories keep their API order.
func FilterCurrent(cats []Category, now time.Time) []Event {
	ts := now.Unix()
	var out []Event
	for _, c := range cats {
		name := c.Category
		if name == "" {
			name = "Unknown"
		}
		for _, e := range c.Streams {
			live := bool(e.AlwaysLive) || (e.StartsAt <= ts && ts < e.EndsAt) || e.StartsAt > ts
			if !live {
				continue
			}
			e.Category = name
			out = append(out, e)
		}
	}
	return groupByCategory(out)
}

// groupByCategory stably regroups events so each category is contiguous, in
// first-seen order.
func groupByCategory(events []Event) []Event {
	var order []string
	groups := make(map[string][]Event)
	for _, e := range events {
		if _, ok := groups[e.Category]; !ok {
			order = append(order, e.Category)
		}
		groups[e.Category] = append(groups[e.Category], e)
	}
	out := make([]Event, 0, len(events))
	for _, c := range order {
		out = append(out, groups[c]...)
	}
	return out
}

var (
	nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_\p{Z}\s]`)
	spaceRe   = regexp.MustCompile(`[\p{Z}\s]+`)
)

// SanitizeTVGID lowercases name, drops punctuation and joins words with dots.
func SanitizeTVGID(name string) string {
	s := strings.ToLower(name)
	s = nonWordRe.ReplaceAllString(s, "")
	return spaceRe.ReplaceAllString(s, ".")
}

// EventEntries turns events into playlist entries whose URLs carry Origin/Referer.
func EventEntries(events []Event, origin, referer string) []playlist.Entry {
	headers := map[string]string{}
	if origin != "" {
		headers["Origin"] = origin
	}
	if referer != "" {
		headers["Referer"] = referer
	}
	out := make([]playlist.Entry, 0, len(events))
	for _, e := range events {
		name := e.Name
		if name == "" {
			name = "Unknown"
		}
		out = append(out, playlist.Entry{
			Name:    name,
			TVGID:   SanitizeTVGID(name),
			TVGName: name,
			TVGLogo: e.Poster,
			Group:   e.Category,
			URL:     e.IFrame,
			Headers: headers,
		})
	}
	return out
}
