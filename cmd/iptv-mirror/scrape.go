package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/snapetech/iptvmirror/internal/config"
	"github.com/snapetech/iptvmirror/internal/epg"
	"github.com/snapetech/iptvmirror/internal/fileutil"
	"github.com/snapetech/iptvmirror/internal/httpclient"
	"github.com/snapetech/iptvmirror/internal/playlist"
	"github.com/snapetech/iptvmirror/internal/premium"
	"github.com/snapetech/iptvmirror/internal/report"
	"github.com/snapetech/iptvmirror/internal/scrape"
	"github.com/snapetech/iptvmirror/internal/tvlogo"
)

const (
	daddyPageFile = "24-7-channels.html"
	logosPageFile = "tv-logos.html"
)

func newScrapeDaddyCmd() *cobra.Command {
	var skipEPG bool
	cmd := &cobra.Command{
		Use:   "scrape-daddy",
		Short: "Build the 24/7 channel playlist with EPG ids and logos",
		Args:  cobra.NoArgs,
		RunE: stage("scrape-daddy", func(ctx context.Context, log zerolog.Logger) error {
			return scrapeDaddy(ctx, log, skipEPG)
		}),
	}
	cmd.Flags().BoolVar(&skipEPG, "skip-epg-download", false, "Match against guide files already in the EPG directory")
	return cmd
}

func scrapeDaddy(ctx context.Context, log zerolog.Logger, skipEPG bool) error {
	cfg := cur.cfg
	client := httpclient.WithTimeout(3 * cfg.Timeout)
	ua := cfg.UserAgent

	pagePath := filepath.Join(cfg.EPGDir, daddyPageFile)
	if _, err := scrape.FetchToFile(ctx, client, cfg.DaddyURL, pagePath, ua); err != nil {
		return fmt.Errorf("channel page: %w", err)
	}
	streams, err := parseFile(pagePath, scrape.ParseAnchors)
	if err != nil {
		return err
	}
	log.Info().Int("anchors", len(streams)).Msg("channel page parsed")

	logosPath := filepath.Join(cfg.EPGDir, logosPageFile)
	var logos *tvlogo.Payload
	if _, err := scrape.FetchToFile(ctx, client, cfg.LogosURL, logosPath, ua); err != nil {
		log.Warn().Err(err).Msg("logo index unavailable, continuing without logos")
	} else if logos, err = parseFile(logosPath, tvlogo.ExtractPayload); err != nil {
		log.Warn().Err(err).Msg("logo index unreadable, continuing without logos")
		logos = nil
	}

	sources := epgSources(cfg)
	if !skipEPG {
		results := downloadEPG(ctx, log, sources)
		printTable(report.Downloads(results))
	}
	channels := epg.CollectIDs(cfg.EPGDir, sources, log)
	if len(channels) == 0 {
		return fmt.Errorf("no EPG channels under %s", cfg.EPGDir)
	}

	b := scrape.DaddyBuilder{
		Index:     epg.NewIndex(channels),
		Logos:     logos,
		StreamURL: premium.Template(cfg.StreamURL),
		Group:     cfg.GroupTitle,
	}
	res := b.Build(streams)
	for _, s := range res.Unmatched {
		log.Debug().Str("name", s.Name).Str("number", s.Number).Msg("no EPG match")
	}
	if err := writePlaylist(cfg.OutPlaylist, res.Entries); err != nil {
		return err
	}
	if err := playlist.WriteFile(cfg.TVGIDsFile, res.TVGIDs); err != nil {
		return err
	}
	log.Info().Str("file", cfg.OutPlaylist).Int("entries", len(res.Entries)).Int("unmatched", len(res.Unmatched)).Msg("playlist written")
	printTable(report.KeyValues(
		[2]string{"Anchors", strconv.Itoa(len(streams))},
		[2]string{"EPG channels", strconv.Itoa(len(channels))},
		[2]string{"Entries", strconv.Itoa(len(res.Entries))},
		[2]string{"With logo", strconv.Itoa(lo.CountBy(res.Entries, func(e playlist.Entry) bool { return e.TVGLogo != "" }))},
		[2]string{"Unmatched", strconv.Itoa(len(res.Unmatched))},
		[2]string{"Ignored", strconv.Itoa(len(res.Ignored))},
	))
	return nil
}

func newScrapePPVCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "scrape-ppv",
		Short: "Build a playlist of live and upcoming PPV events",
		Args:  cobra.NoArgs,
		RunE: stage("scrape-ppv", func(ctx context.Context, log zerolog.Logger) error {
			cfg := cur.cfg
			if output != "" {
				cfg.PPVPlaylist = output
			}
			client := httpclient.WithTimeout(3 * cfg.Timeout)
			cats, err := scrape.FetchEvents(ctx, client, cfg.PPVAPIURL, cfg.UserAgent)
			if err != nil {
				return err
			}
			events := scrape.FilterCurrent(cats, time.Now())
			entries := scrape.EventEntries(events, cfg.PPVOrigin, cfg.PPVReferer)
			if err := writePlaylist(cfg.PPVPlaylist, entries); err != nil {
				return err
			}
			log.Info().Str("file", cfg.PPVPlaylist).Int("categories", len(cats)).Int("events", len(entries)).Msg("ppv playlist written")
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output playlist (default from IPTV_MIRROR_PPV_PLAYLIST)")
	return cmd
}

func writePlaylist(path string, entries []playlist.Entry) error {
	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		return playlist.Encode(w, playlist.NewPlaylist(entries))
	})
}

func parseFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	return parse(f)
}

func epgSources(cfg *config.Config) []epg.Source {
	if len(cfg.EPGSources) == 0 {
		return epg.DefaultSources()
	}
	return lo.Map(cfg.EPGSources, func(s config.EPGSource, _ int) epg.Source {
		return epg.Source{Filename: s.Filename, URL: s.URL}
	})
}

func downloadEPG(ctx context.Context, log zerolog.Logger, sources []epg.Source) []epg.DownloadResult {
	cfg := cur.cfg
	d := &epg.Downloader{
		Client:    httpclient.WithTimeout(6 * cfg.Timeout),
		Workers:   cfg.EPGWorkers,
		UserAgent: cfg.UserAgent,
		Metrics:   cur.metrics,
		Log:       log,
	}
	return d.Download(ctx, cfg.EPGDir, sources)
}
