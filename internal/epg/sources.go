// Package epg downloads XMLTV guide feeds and matches their channel IDs to
// scraped channel names.
package epg

import "fmt"

// Source is one XMLTV feed and the file it is stored as.
type Source struct {
	Filename string
	URL      string
}

const epgShareBase = "https://epgshare01.online/epgshare01/epg_ripper_"

var epgShareRegions = []string{
	"US1", "US_LOCALS2", "CA1", "UK1", "AU1", "IE1", "DE1", "ZA1", "FR1", "CL1", "BR1",
	"BG1", "DK1", "GR1", "IL1", "IT1", "MY1", "MX1", "NL1", "NZ1", "CZ1", "SG1", "PK1",
	"RO1", "CH1", "PL1", "SE1", "UY1", "CO1", "PT1", "ES1", "TR1", "FANDUEL1",
}

var epgPWChannels = []string{"8486", "12358", "9206"}

// DefaultSources returns the built-in feed list: two m3u4u exports, the
// epgshare01 regional rippers and three epg.pw channel feeds, stored as
// epgShare1.xml .. epgShareN.xml.
func DefaultSources() []Source {
	urls := []string{
		"https://www.dropbox.com/scl/fi/7r7h1jdufwoplnhhxkism/m3u4u-103216-593044-EPG.xml?rlkey=606vswc00na76l51otnz116ed&st=q273qocn&dl=1",
		"https://www.dropbox.com/scl/fi/tsj8796ea6krin4pv4t32/m3u4u-103216-595541-EPG.xml?rlkey=tu42144366j5w0n2s8fc1ogvp&st=2gg7ylx2&dl=1",
	}
	for _, r := range epgShareRegions {
		urls = append(urls, epgShareBase+r+".xml.gz")
	}
	for _, id := range epgPWChannels {
		urls = append(urls, "https://epg.pw/api/epg.xml?channel_id="+id)
	}
	out := make([]Source, len(urls))
	for i, u := range urls {
		out[i] = Source{Filename: fmt.Sprintf("epgShare%d.xml", i+1), URL: u}
	}
	return out
}
