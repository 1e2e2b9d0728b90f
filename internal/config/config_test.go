package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_defaults(t *testing.T) {
	os.Clearenv()
	c := Load()
	if c.SourcePlaylist != "tivimate_playlist.m3u8" || c.LinksFile != "links.m3u8" || c.ChannelsFile != "channels.m3u8" {
		t.Errorf("file defaults: %q %q %q", c.SourcePlaylist, c.LinksFile, c.ChannelsFile)
	}
	if c.Workers != 10 || c.MaxAttempts != 5 || c.Backoff != 5*time.Second || c.Timeout != 10*time.Second {
		t.Errorf("probe defaults: workers=%d attempts=%d backoff=%v timeout=%v", c.Workers, c.MaxAttempts, c.Backoff, c.Timeout)
	}
	if c.ChannelsURL != DefaultChannelsURL {
		t.Errorf("ChannelsURL = %q", c.ChannelsURL)
	}
	if c.Templates != nil {
		t.Errorf("Templates should be nil without env; got %v", c.Templates)
	}
}

func TestLoad_overrides(t *testing.T) {
	os.Clearenv()
	os.Setenv("IPTV_MIRROR_WORKERS", "3")
	os.Setenv("IPTV_MIRROR_MAX_ATTEMPTS", "10")
	os.Setenv("IPTV_MIRROR_BACKOFF", "250ms")
	os.Setenv("IPTV_MIRROR_TEMPLATES", "https://a/premium{id}/mono.m3u8, ,https://b/premium{id}/mono.m3u8")
	os.Setenv("IPTV_MIRROR_VERIFY_PLAYLIST", "yes")
	os.Setenv("IPTV_MIRROR_RATE_LIMIT", "2.5")
	c := Load()
	if c.Workers != 3 || c.MaxAttempts != 10 || c.Backoff != 250*time.Millisecond {
		t.Errorf("overrides: workers=%d attempts=%d backoff=%v", c.Workers, c.MaxAttempts, c.Backoff)
	}
	if len(c.Templates) != 2 || c.Templates[1] != "https://b/premium{id}/mono.m3u8" {
		t.Errorf("Templates = %v", c.Templates)
	}
	if !c.VerifyPlaylist {
		t.Error("VerifyPlaylist should be true for yes")
	}
	if c.RateLimit != 2.5 {
		t.Errorf("RateLimit = %v", c.RateLimit)
	}
}

func TestLoad_invalidNumbersFallBack(t *testing.T) {
	os.Clearenv()
	os.Setenv("IPTV_MIRROR_WORKERS", "many")
	os.Setenv("IPTV_MIRROR_MAX_ATTEMPTS", "0")
	c := Load()
	if c.Workers != 10 {
		t.Errorf("Workers = %d, want default", c.Workers)
	}
	if c.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want default", c.MaxAttempts)
	}
}

func TestLoadSourcesFile(t *testing.T) {
	os.Clearenv()
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	body := `channels_url: https://relay.example/playlist
templates:
  - https://m1.example/premium{id}/mono.m3u8
headers:
  Referer: https://player.example/
epg:
  - filename: guide1.xml
    url: https://epg.example/guide1.xml.gz
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	c := Load()
	if err := c.LoadSourcesFile(path); err != nil {
		t.Fatal(err)
	}
	if c.ChannelsURL != "https://relay.example/playlist" {
		t.Errorf("ChannelsURL = %q", c.ChannelsURL)
	}
	if len(c.Templates) != 1 || len(c.EPGSources) != 1 || c.EPGSources[0].Filename != "guide1.xml" {
		t.Errorf("templates=%v epg=%v", c.Templates, c.EPGSources)
	}
	if c.Headers["Referer"] != "https://player.example/" {
		t.Errorf("Headers = %v", c.Headers)
	}
	if c.DaddyURL != DefaultDaddyURL {
		t.Errorf("absent field should keep default; DaddyURL = %q", c.DaddyURL)
	}
}

func TestLoadSourcesFile_missingAndInvalid(t *testing.T) {
	os.Clearenv()
	c := Load()
	if err := c.LoadSourcesFile(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("missing file should be nil: %v", err)
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("epg:\n  - filename: x.xml\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.LoadSourcesFile(path); err == nil {
		t.Fatal("epg entry without url should fail")
	}
}
