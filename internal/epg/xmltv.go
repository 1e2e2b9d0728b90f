package epg

import (
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Channel is an XMLTV <channel> with the file it was found in.
type Channel struct {
	ID           string
	DisplayNames []string
	Source       string
}

// ParseChannels stream-decodes the <channel> elements of an XMLTV document.
// Programme elements are skipped without being buffered.
func ParseChannels(r io.Reader) ([]Channel, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	type displayName struct {
		Text string `xml:",chardata"`
	}
	type chNode struct {
		ID           string        `xml:"id,attr"`
		DisplayNames []displayName `xml:"display-name"`
	}
	var out []Channel
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "channel":
		case "programme":
			if err := dec.Skip(); err != nil {
				return nil, err
			}
			continue
		default:
			continue
		}
		var node chNode
		if err := dec.DecodeElement(&node, &se); err != nil {
			return nil, err
		}
		id := strings.TrimSpace(node.ID)
		if id == "" {
			continue
		}
		ch := Channel{ID: id}
		for _, dn := range node.DisplayNames {
			if name := strings.TrimSpace(dn.Text); name != "" {
				ch.DisplayNames = append(ch.DisplayNames, name)
			}
		}
		out = append(out, ch)
	}
	return out, nil
}

// CollectIDs reads each source file under dir and returns the unique channel IDs
// in first-seen order. Missing or malformed files are logged and skipped.
func CollectIDs(dir string, sources []Source, log zerolog.Logger) []Channel {
	seen := make(map[string]int)
	var out []Channel
	for _, src := range sources {
		path := filepath.Join(dir, filepath.Base(src.Filename))
		f, err := os.Open(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("epg file unavailable")
			continue
		}
		chans, err := ParseChannels(f)
		f.Close()
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("epg file is not valid XMLTV")
			continue
		}
		for _, ch := range chans {
			if i, dup := seen[ch.ID]; dup {
				out[i].DisplayNames = appendMissing(out[i].DisplayNames, ch.DisplayNames)
				continue
			}
			ch.Source = src.Filename
			seen[ch.ID] = len(out)
			out = append(out, ch)
		}
	}
	return out
}

func appendMissing(dst, src []string) []string {
	for _, s := range src {
		found := false
		for _, d := range dst {
			if d == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}
