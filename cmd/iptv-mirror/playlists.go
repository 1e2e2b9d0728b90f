package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/snapetech/iptvmirror/internal/fileutil"
	"github.com/snapetech/iptvmirror/internal/httpclient"
	"github.com/snapetech/iptvmirror/internal/playlist"
	"github.com/snapetech/iptvmirror/internal/report"
)

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Fetch the relay playlist, validate mirrors and assemble the source playlist",
		Args:  cobra.NoArgs,
		RunE: stage("update", func(ctx context.Context, log zerolog.Logger) error {
			log.Info().Str("run_id", cur.runID).Str("playlist", cur.cfg.SourcePlaylist).Msg("update started")
			if err := fetchChannels(ctx, log); err != nil {
				return err
			}
			if err := validateLinks(ctx, log, validateOpts{}); err != nil {
				return err
			}
			return assemble(log)
		}),
	}
}

func newFetchChannelsCmd() *cobra.Command {
	var channelsURL, output string
	cmd := &cobra.Command{
		Use:   "fetch-channels",
		Short: "Download the relay playlist",
		Args:  cobra.NoArgs,
		RunE: stage("fetch-channels", func(ctx context.Context, log zerolog.Logger) error {
			if channelsURL != "" {
				cur.cfg.ChannelsURL = channelsURL
			}
			if output != "" {
				cur.cfg.ChannelsFile = output
			}
			return fetchChannels(ctx, log)
		}),
	}
	cmd.Flags().StringVar(&channelsURL, "url", "", "Relay playlist URL (default from IPTV_MIRROR_CHANNELS_URL)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default from IPTV_MIRROR_CHANNELS_FILE)")
	return cmd
}

func fetchChannels(ctx context.Context, log zerolog.Logger) error {
	cfg := cur.cfg
	client := httpclient.WithTimeout(3 * cfg.Timeout)
	body, err := httpclient.GetBody(ctx, client, cfg.ChannelsURL, cfg.UserAgent, cfg.Headers)
	if err != nil {
		return fmt.Errorf("fetch channels: %w", err)
	}
	if err := fileutil.WriteFileAtomic(cfg.ChannelsFile, body); err != nil {
		return err
	}
	log.Info().Str("file", cfg.ChannelsFile).Int("bytes", len(body)).Msg("channels saved")
	return nil
}

func newCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete",
		Short: "Rewrite stream URLs in a playlist from the valid links, matched by premium ID",
		Args:  cobra.NoArgs,
		RunE: stage("complete", func(_ context.Context, log zerolog.Logger) error {
			cfg := cur.cfg
			links, err := playlist.LoadLinks(cfg.LinksFile)
			if err != nil {
				return err
			}
			byID, dups, unmatched := playlist.LinksByID(links)
			for _, d := range dups {
				log.Debug().Str("url", d).Msg("duplicate id, keeping first link")
			}
			if len(unmatched) > 0 {
				log.Warn().Int("count", len(unmatched)).Msg("links without a premium id ignored")
			}
			lines, err := playlist.Load(cfg.CompleteInput)
			if err != nil {
				return err
			}
			out, st := playlist.ReplaceByID(lines, byID)
			if err := playlist.WriteFile(cfg.CompleteOutput, out); err != nil {
				return err
			}
			log.Info().Str("file", cfg.CompleteOutput).Int("replaced", st.Replaced).Int("missing", st.Missing).Msg("playlist completed")
			printTable(report.KeyValues(
				[2]string{"Lines", strconv.Itoa(st.Lines)},
				[2]string{"Replaced", strconv.Itoa(st.Replaced)},
				[2]string{"No valid link", strconv.Itoa(st.Missing)},
				[2]string{"No premium id", strconv.Itoa(st.NoID)},
			))
			return nil
		}),
	}
}

func newAssembleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assemble",
		Short: "Replace valid entries in the source playlist with their relay entries",
		Args:  cobra.NoArgs,
		RunE: stage("assemble", func(_ context.Context, log zerolog.Logger) error {
			return assemble(log)
		}),
	}
}

func assemble(log zerolog.Logger) error {
	cfg := cur.cfg
	channels, err := playlist.Load(cfg.ChannelsFile)
	if err != nil {
		return err
	}
	pm := playlist.BuildProxyMap(channels)
	links, err := playlist.LoadLinks(cfg.LinksFile)
	if err != nil {
		return err
	}
	valid := lo.SliceToMap(links, func(u string) (string, bool) { return u, true })
	lines, err := playlist.Load(cfg.SourcePlaylist)
	if err != nil {
		return err
	}
	out, st := playlist.Assemble(lines, valid, pm, cfg.AppendMissing)
	if err := playlist.WriteFile(cfg.SourcePlaylist, out); err != nil {
		return err
	}
	log.Info().Str("file", cfg.SourcePlaylist).Int("proxied", len(pm)).Int("replaced", st.Replaced).
		Int("appended", st.Appended).Msg("playlist assembled")
	printTable(report.KeyValues(
		[2]string{"Relay entries", strconv.Itoa(len(pm))},
		[2]string{"Valid links", strconv.Itoa(len(valid))},
		[2]string{"Replaced", strconv.Itoa(st.Replaced)},
		[2]string{"Appended", strconv.Itoa(st.Appended)},
	))
	return nil
}
