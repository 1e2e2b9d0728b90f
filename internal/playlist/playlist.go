// Package playlist reads, rewrites and writes M3U playlists as raw lines, so entries
// the commands do not touch come out byte-for-byte as they went in.
package playlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/snapetech/iptvmirror/internal/fileutil"
)

// Parse splits r into lines. Line content is kept as-is apart from the line terminator.
func Parse(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}
	return lines, nil
}

// Load reads the playlist at path.
func Load(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	lines, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}

// LoadLinks reads a links file: one URL per line, blanks dropped.
func LoadLinks(path string) ([]string, error) {
	lines, err := Load(path)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out, nil
}

// WriteFile atomically replaces path with lines, newline-terminated.
func WriteFile(path string, lines []string) error {
	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		for _, l := range lines {
			if _, err := bw.WriteString(l); err != nil {
				return err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		return bw.Flush()
	})
}
