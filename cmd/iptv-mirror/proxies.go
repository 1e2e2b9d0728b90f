package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/snapetech/iptvmirror/internal/httpclient"
	"github.com/snapetech/iptvmirror/internal/proxypool"
	"github.com/snapetech/iptvmirror/internal/report"
)

const defaultProbeURL = "https://www.gstatic.com/generate_204"

func newProxiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxies",
		Short: "Inspect the proxy list",
	}
	cmd.AddCommand(newProxiesCheckCmd())
	return cmd
}

func newProxiesCheckCmd() *cobra.Command {
	var (
		source   string
		probeURL string
		workers  int
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Request a probe URL through every proxy and report which ones work",
		Args:  cobra.NoArgs,
		RunE: stage("proxies-check", func(ctx context.Context, log zerolog.Logger) error {
			cfg := cur.cfg
			if source != "" {
				cfg.ProxyList = source
			}
			if cfg.ProxyList == "" {
				return errors.New("no proxy list configured (IPTV_MIRROR_PROXY_LIST or --list)")
			}
			pool, err := proxypool.Load(ctx, httpclient.WithTimeout(cfg.Timeout), cfg.ProxyList)
			if err != nil {
				return err
			}
			results := pool.Check(ctx, probeURL, cfg.Timeout, workers)
			printTable(report.Proxies(results))
			ok := lo.CountBy(results, func(r proxypool.CheckResult) bool { return r.OK })
			log.Info().Int("proxies", len(results)).Int("ok", ok).Msg("proxy check finished")
			if ok == 0 {
				return errors.New("no working proxies")
			}
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&source, "list", "", "Proxy list file or URL (default from IPTV_MIRROR_PROXY_LIST)")
	f.StringVar(&probeURL, "probe-url", defaultProbeURL, "URL requested through each proxy")
	f.IntVarP(&workers, "workers", "w", 20, "Concurrent checks")
	return cmd
}
