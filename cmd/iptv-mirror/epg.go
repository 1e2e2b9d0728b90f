package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/snapetech/iptvmirror/internal/epg"
	"github.com/snapetech/iptvmirror/internal/fileutil"
	"github.com/snapetech/iptvmirror/internal/report"
)

func newEPGCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "epg",
		Short: "Download XMLTV guide feeds and list their channel ids",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			if dir != "" {
				cur.cfg.EPGDir = dir
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&dir, "dir", "d", "", "Guide directory (default from IPTV_MIRROR_EPG_DIR)")
	cmd.AddCommand(newEPGFetchCmd(), newEPGIDsCmd())
	return cmd
}

func newEPGFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download every configured guide feed, decompressing gzip bodies",
		Args:  cobra.NoArgs,
		RunE: stage("epg-fetch", func(ctx context.Context, log zerolog.Logger) error {
			sources := epgSources(cur.cfg)
			results := downloadEPG(ctx, log, sources)
			printTable(report.Downloads(results))
			failed := lo.CountBy(results, func(r epg.DownloadResult) bool { return r.Err != nil })
			log.Info().Int("feeds", len(results)).Int("failed", failed).Msg("epg fetch finished")
			if failed == len(results) && failed > 0 {
				return errors.New("every guide download failed")
			}
			return nil
		}),
	}
}

func newEPGIDsCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "ids",
		Short: "List unique channel ids across the downloaded guide files",
		Args:  cobra.NoArgs,
		RunE: stage("epg-ids", func(_ context.Context, log zerolog.Logger) error {
			channels := epg.CollectIDs(cur.cfg.EPGDir, epgSources(cur.cfg), log)
			if len(channels) == 0 {
				return fmt.Errorf("no channel ids under %s", cur.cfg.EPGDir)
			}
			write := func(w io.Writer) error {
				for _, ch := range channels {
					if _, err := fmt.Fprintln(w, ch.ID); err != nil {
						return err
					}
				}
				return nil
			}
			log.Info().Int("ids", len(channels)).Msg("channel ids collected")
			if output == "" {
				return write(os.Stdout)
			}
			return fileutil.WriteAtomic(output, write)
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write ids here instead of stdout")
	return cmd
}
