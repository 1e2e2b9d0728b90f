package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/snapetech/iptvmirror/internal/store"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the probe cache",
	}
	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete cached probe results older than a cutoff",
		Args:  cobra.NoArgs,
		RunE: stage("cache-prune", func(ctx context.Context, log zerolog.Logger) error {
			if cur.cfg.CacheDB == "" {
				return errors.New("no probe cache configured (IPTV_MIRROR_CACHE_DB)")
			}
			c, err := store.Open(cur.cfg.CacheDB)
			if err != nil {
				return err
			}
			defer c.Close()
			if olderThan <= 0 {
				olderThan = cur.cfg.CacheTTL
			}
			n, err := c.Prune(ctx, olderThan)
			if err != nil {
				return err
			}
			log.Info().Int64("deleted", n).Dur("older_than", olderThan).Msg("probe cache pruned")
			return nil
		}),
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 0, "Cutoff age (default: the cache TTL)")
	cmd.AddCommand(prune)
	return cmd
}
