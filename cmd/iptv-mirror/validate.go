package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/snapetech/iptvmirror/internal/config"
	"github.com/snapetech/iptvmirror/internal/httpclient"
	"github.com/snapetech/iptvmirror/internal/playlist"
	"github.com/snapetech/iptvmirror/internal/premium"
	"github.com/snapetech/iptvmirror/internal/proxypool"
	"github.com/snapetech/iptvmirror/internal/report"
	"github.com/snapetech/iptvmirror/internal/store"
	"github.com/snapetech/iptvmirror/internal/validate"
)

// validateOpts are command-line overrides; zero values keep the config.
type validateOpts struct {
	input       string
	output      string
	templateSet string
	workers     int
	maxAttempts int
	// attemptsSet reports an explicit --max-attempts, even one equal to the default.
	attemptsSet bool
	proxies     string
	verify      bool
	noCache     bool
}

func newValidateCmd() *cobra.Command {
	var o validateOpts
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Probe mirror URLs for every premium ID in the playlist and save the working ones",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = stage("validate", func(ctx context.Context, log zerolog.Logger) error {
		o.attemptsSet = cmd.Flags().Changed("max-attempts")
		return validateLinks(ctx, log, o)
	})
	f := cmd.Flags()
	f.StringVarP(&o.input, "input", "i", "", "Playlist to read premium IDs from (default from IPTV_MIRROR_SOURCE_PLAYLIST)")
	f.StringVarP(&o.output, "output", "o", "", "Valid links file (default from IPTV_MIRROR_LINKS_FILE)")
	f.StringVar(&o.templateSet, "templates", "", "Mirror template set: default or legacy")
	f.IntVarP(&o.workers, "workers", "w", 0, "Concurrent probes")
	f.IntVar(&o.maxAttempts, "max-attempts", 0, "Attempts per URL before it is skipped")
	f.StringVar(&o.proxies, "proxies", "", "Proxy list file or URL")
	f.BoolVar(&o.verify, "verify", false, "Require a decodable HLS playlist on GET")
	f.BoolVar(&o.noCache, "no-cache", false, "Ignore the probe cache")
	return cmd
}

func (o validateOpts) apply(cfg *config.Config) {
	if o.input != "" {
		cfg.SourcePlaylist = o.input
	}
	if o.output != "" {
		cfg.LinksFile = o.output
	}
	if o.templateSet != "" {
		cfg.TemplateSet = o.templateSet
		cfg.Templates = nil
	}
	if o.workers > 0 {
		cfg.Workers = o.workers
	}
	if o.maxAttempts > 0 {
		cfg.MaxAttempts = o.maxAttempts
	}
	if o.proxies != "" {
		cfg.ProxyList = o.proxies
	}
	if o.verify {
		cfg.VerifyPlaylist = true
	}
	if o.noCache {
		cfg.CacheDB = ""
	}
}

// templates picks explicit templates over the named set. The legacy set brings its
// own attempt budget unless attemptsSet.
func templates(cfg *config.Config, attemptsSet bool) ([]premium.Template, error) {
	if len(cfg.Templates) > 0 {
		return premium.ParseTemplates(cfg.Templates)
	}
	ts, err := premium.TemplateSet(cfg.TemplateSet)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(strings.TrimSpace(cfg.TemplateSet), "legacy") && !attemptsSet {
		cfg.MaxAttempts = premium.LegacyMaxAttempts
	}
	return ts, nil
}

func validateLinks(ctx context.Context, log zerolog.Logger, o validateOpts) error {
	cfg := cur.cfg
	o.apply(cfg)

	f, err := os.Open(filepath.Clean(cfg.SourcePlaylist))
	if err != nil {
		return err
	}
	ids, err := premium.ExtractIDs(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.SourcePlaylist, err)
	}
	ts, err := templates(cfg, o.attemptsSet || os.Getenv("IPTV_MIRROR_MAX_ATTEMPTS") != "")
	if err != nil {
		return err
	}
	cands := premium.Expand(ids, ts)
	if len(cands) == 0 {
		return premium.ErrNoCandidates
	}
	log.Info().Int("ids", len(ids)).Int("templates", len(ts)).Int("candidates", len(cands)).Msg("validating mirrors")

	v := &validate.Validator{
		Workers:        cfg.Workers,
		MaxAttempts:    cfg.MaxAttempts,
		Backoff:        cfg.Backoff,
		Timeout:        cfg.Timeout,
		UserAgent:      cfg.UserAgent,
		Headers:        cfg.Headers,
		Limiter:        httpclient.NewLimiter(cfg.RateLimit),
		HostSem:        httpclient.NewHostSemaphore(cfg.HostConcurrency),
		CacheTTL:       cfg.CacheTTL,
		Metrics:        cur.metrics,
		VerifyPlaylist: cfg.VerifyPlaylist,
		Log:            log,
	}
	if cfg.ProxyList != "" {
		pool, err := proxypool.Load(ctx, httpclient.WithTimeout(cfg.Timeout), cfg.ProxyList)
		if err != nil {
			return err
		}
		log.Info().Int("proxies", pool.Len()).Msg("proxy pool loaded")
		v.Proxies = pool
	}
	cache, err := store.Open(cfg.CacheDB)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
		v.Cache = cache
	}

	rep := v.Run(ctx, premium.URLs(cands))
	printTable(report.Validation(rep))

	if err := ctx.Err(); err != nil {
		// Partial results never replace the links file.
		return fmt.Errorf("interrupted with %d URLs pending: %w", rep.Pending, err)
	}
	if len(rep.Valid) == 0 {
		return errors.New("no valid links found; keeping " + cfg.LinksFile)
	}
	if err := playlist.WriteFile(cfg.LinksFile, rep.Valid); err != nil {
		return err
	}
	log.Info().Str("file", cfg.LinksFile).Int("links", len(rep.Valid)).Msg("valid links saved")
	return nil
}
