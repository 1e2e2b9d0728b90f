package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the relay and scrape endpoints. All of them rotate every few months upstream,
// so every one can be overridden from env or the sources file.
const (
	DefaultChannelsURL = "https://josh9456-myproxy.hf.space/playlist/channels"
	DefaultDaddyURL    = "https://thedaddy.to/24-7-channels.php"
	DefaultLogosURL    = "https://github.com/tv-logo/tv-logos/tree/main/countries/united-states"
	DefaultPPVAPIURL   = "https://ppv.wtf/api/streams"
	DefaultPPVOrigin   = "https://ppv.wtf"
	DefaultPPVReferer  = "https://ppv.wtf/"
	DefaultStreamURL   = "https://xyzdddd.mizhls.ru/lb/premium{id}/index.m3u8"
	DefaultGroupTitle  = "USA (DADDY LIVE)"
)

// EPGSource is one XMLTV feed and the local file it is stored as.
type EPGSource struct {
	Filename string `yaml:"filename"`
	URL      string `yaml:"url"`
}

// Config holds file locations, probe tuning and endpoint URLs for every command.
// Load from env; LoadSourcesFile layers the optional YAML file on top.
type Config struct {
	// Playlist files
	SourcePlaylist    string // e.g. tivimate_playlist.m3u8 (validate input, assemble target)
	LinksFile         string // validated URLs, one per line
	ChannelsFile      string // relay playlist with /watch/<b64> URLs
	CompleteInput     string // complete: playlist to rewrite
	CompleteOutput    string // complete: rewritten copy
	ChannelsURL       string // relay playlist source
	AppendMissing     bool   // assemble: append valid relay entries absent from the playlist
	OutPlaylist       string // scrape-daddy output
	TVGIDsFile        string // scrape-daddy tvg-id list
	PPVPlaylist       string // scrape-ppv output

	// Probe
	TemplateSet     string   // "default" or "legacy"; ignored when Templates is set
	Templates       []string // explicit mirror templates with {id}
	Workers         int
	MaxAttempts     int
	Backoff         time.Duration // fixed wait after a 429
	Timeout         time.Duration // per request
	UserAgent       string        // "randomize" rotates per request
	Headers         map[string]string
	ProxyList       string  // file path or URL; "" = direct only
	RateLimit       float64 // requests/second across the run; 0 = unlimited
	HostConcurrency int
	VerifyPlaylist  bool // GET fallback must return a decodable HLS playlist
	CacheDB         string
	CacheTTL        time.Duration

	// Scrape
	DaddyURL   string
	LogosURL   string
	StreamURL  string // template for emitted daddy entries
	GroupTitle string
	PPVAPIURL  string
	PPVOrigin  string
	PPVReferer string
	EPGDir     string
	EPGSources []EPGSource // nil = built-in list
	EPGWorkers int

	// Publish
	GitRepo        string
	GitRemote      string
	GitToken       string
	GitAuthorName  string
	GitAuthorEmail string
	S3Bucket       string
	S3Prefix       string
	S3Profile      string

	MetricsFile string
}

// Load reads config from environment. Call LoadEnvFile(".env") before Load() to use a .env file.
func Load() *Config {
	c := &Config{
		SourcePlaylist:  getEnv("IPTV_MIRROR_SOURCE_PLAYLIST", "tivimate_playlist.m3u8"),
		LinksFile:       getEnv("IPTV_MIRROR_LINKS_FILE", "links.m3u8"),
		ChannelsFile:    getEnv("IPTV_MIRROR_CHANNELS_FILE", "channels.m3u8"),
		CompleteInput:   getEnv("IPTV_MIRROR_COMPLETE_INPUT", "updated_tivimate_playlist.m3u8"),
		CompleteOutput:  getEnv("IPTV_MIRROR_COMPLETE_OUTPUT", "completed_tivimate_playlist.m3u8"),
		ChannelsURL:     getEnv("IPTV_MIRROR_CHANNELS_URL", DefaultChannelsURL),
		AppendMissing:   getEnvBool("IPTV_MIRROR_APPEND_MISSING", false),
		OutPlaylist:     getEnv("IPTV_MIRROR_OUT_PLAYLIST", "out.m3u8"),
		TVGIDsFile:      getEnv("IPTV_MIRROR_TVG_IDS_FILE", "tvg-ids.txt"),
		PPVPlaylist:     getEnv("IPTV_MIRROR_PPV_PLAYLIST", "ppv.m3u8"),
		TemplateSet:     getEnv("IPTV_MIRROR_TEMPLATE_SET", "default"),
		Templates:       getEnvList("IPTV_MIRROR_TEMPLATES"),
		Workers:         getEnvInt("IPTV_MIRROR_WORKERS", 10),
		MaxAttempts:     getEnvInt("IPTV_MIRROR_MAX_ATTEMPTS", 5),
		Backoff:         getEnvDuration("IPTV_MIRROR_BACKOFF", 5*time.Second),
		Timeout:         getEnvDuration("IPTV_MIRROR_TIMEOUT", 10*time.Second),
		UserAgent:       getEnv("IPTV_MIRROR_USER_AGENT", "Mozilla/5.0"),
		ProxyList:       os.Getenv("IPTV_MIRROR_PROXY_LIST"),
		RateLimit:       getEnvFloat("IPTV_MIRROR_RATE_LIMIT", 0),
		HostConcurrency: getEnvInt("IPTV_MIRROR_HOST_CONCURRENCY", 4),
		VerifyPlaylist:  getEnvBool("IPTV_MIRROR_VERIFY_PLAYLIST", false),
		CacheDB:         os.Getenv("IPTV_MIRROR_CACHE_DB"),
		CacheTTL:        getEnvDuration("IPTV_MIRROR_CACHE_TTL", 2*time.Hour),
		DaddyURL:        getEnv("IPTV_MIRROR_DADDY_URL", DefaultDaddyURL),
		LogosURL:        getEnv("IPTV_MIRROR_LOGOS_URL", DefaultLogosURL),
		StreamURL:       getEnv("IPTV_MIRROR_STREAM_URL", DefaultStreamURL),
		GroupTitle:      getEnv("IPTV_MIRROR_GROUP_TITLE", DefaultGroupTitle),
		PPVAPIURL:       getEnv("IPTV_MIRROR_PPV_API_URL", DefaultPPVAPIURL),
		PPVOrigin:       getEnv("IPTV_MIRROR_PPV_ORIGIN", DefaultPPVOrigin),
		PPVReferer:      getEnv("IPTV_MIRROR_PPV_REFERER", DefaultPPVReferer),
		EPGDir:          getEnv("IPTV_MIRROR_EPG_DIR", "."),
		EPGWorkers:      getEnvInt("IPTV_MIRROR_EPG_WORKERS", 4),
		GitRepo:         os.Getenv("IPTV_MIRROR_GIT_REPO"),
		GitRemote:       getEnv("IPTV_MIRROR_GIT_REMOTE", "origin"),
		GitToken:        os.Getenv("IPTV_MIRROR_GIT_TOKEN"),
		GitAuthorName:   getEnv("IPTV_MIRROR_GIT_AUTHOR_NAME", "iptv-mirror"),
		GitAuthorEmail:  getEnv("IPTV_MIRROR_GIT_AUTHOR_EMAIL", "iptv-mirror@users.noreply.github.com"),
		S3Bucket:        os.Getenv("IPTV_MIRROR_S3_BUCKET"),
		S3Prefix:        os.Getenv("IPTV_MIRROR_S3_PREFIX"),
		S3Profile:       os.Getenv("IPTV_MIRROR_S3_PROFILE"),
		MetricsFile:     os.Getenv("IPTV_MIRROR_METRICS_FILE"),
	}
	if ref := os.Getenv("IPTV_MIRROR_REFERER"); ref != "" {
		c.Headers = map[string]string{"Referer": ref}
	}
	if c.Workers <= 0 {
		c.Workers = 10
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Backoff < 0 {
		c.Backoff = 0
	}
	if c.HostConcurrency <= 0 {
		c.HostConcurrency = 4
	}
	if c.EPGWorkers <= 0 {
		c.EPGWorkers = 4
	}
	return c
}

// sourcesFile is the on-disk shape of the optional YAML overrides.
type sourcesFile struct {
	ChannelsURL string            `yaml:"channels_url"`
	TemplateSet string            `yaml:"template_set"`
	Templates   []string          `yaml:"templates"`
	Headers     map[string]string `yaml:"headers"`
	ProxyList   string            `yaml:"proxy_list"`
	DaddyURL    string            `yaml:"daddy_url"`
	LogosURL    string            `yaml:"logos_url"`
	StreamURL   string            `yaml:"stream_url"`
	PPVAPIURL   string            `yaml:"ppv_api_url"`
	EPG         []EPGSource       `yaml:"epg"`
}

// LoadSourcesFile merges the YAML sources file at path into c. Fields absent from the
// file keep their env/default values. A missing path is not an error.
func (c *Config) LoadSourcesFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var sf sourcesFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("sources file %s: %w", path, err)
	}
	for i, src := range sf.EPG {
		if strings.TrimSpace(src.Filename) == "" || strings.TrimSpace(src.URL) == "" {
			return fmt.Errorf("sources file %s: epg entry %d needs filename and url", path, i+1)
		}
	}
	setIf(&c.ChannelsURL, sf.ChannelsURL)
	setIf(&c.TemplateSet, sf.TemplateSet)
	setIf(&c.ProxyList, sf.ProxyList)
	setIf(&c.DaddyURL, sf.DaddyURL)
	setIf(&c.LogosURL, sf.LogosURL)
	setIf(&c.StreamURL, sf.StreamURL)
	setIf(&c.PPVAPIURL, sf.PPVAPIURL)
	if len(sf.Templates) > 0 {
		c.Templates = sf.Templates
	}
	if len(sf.EPG) > 0 {
		c.EPGSources = sf.EPG
	}
	if len(sf.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(sf.Headers))
		}
		for k, v := range sf.Headers {
			c.Headers[k] = v
		}
	}
	return nil
}

func setIf(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return defaultVal
		}
		return f
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string) []string {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
