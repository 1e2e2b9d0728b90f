// Package premium extracts premium channel identifiers from playlists and expands
// them into candidate mirror URLs.
package premium

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"

	"github.com/samber/lo"
)

// ErrNoIDs is returned when a playlist carries no premium<N>/mono.m3u8 URLs.
var ErrNoIDs = errors.New("no premium identifiers found")

// ErrNoCandidates is returned when expansion yields no URLs (no usable templates).
var ErrNoCandidates = errors.New("no candidate URLs generated")

var (
	monoRe = regexp.MustCompile(`premium(\d+)/mono\.m3u8`)
	idRe   = regexp.MustCompile(`premium(\d+)`)
)

// ExtractIDs returns every identifier matching premium<N>/mono.m3u8 in r,
// unique and sorted numerically.
func ExtractIDs(r io.Reader) ([]string, error) {
	seen := make(map[string]struct{})
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		for _, m := range monoRe.FindAllStringSubmatch(sc.Text(), -1) {
			seen[m[1]] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan playlist: %w", err)
	}
	if len(seen) == 0 {
		return nil, ErrNoIDs
	}
	ids := lo.Keys(seen)
	SortIDs(ids)
	return ids, nil
}

// SortIDs orders ids numerically; ties (leading zeros) fall back to string order.
func SortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.ParseUint(ids[i], 10, 64)
		b, errB := strconv.ParseUint(ids[j], 10, 64)
		if errA == nil && errB == nil && a != b {
			return a < b
		}
		return ids[i] < ids[j]
	})
}

// IDFromURL returns the number following "premium" in u.
func IDFromURL(u string) (string, bool) {
	m := idRe.FindStringSubmatch(u)
	if m == nil {
		return "", false
	}
	return m[1], true
}
