package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/snapetech/iptvmirror/internal/health"
	"github.com/snapetech/iptvmirror/internal/httpclient"
	"github.com/snapetech/iptvmirror/internal/report"
	"github.com/snapetech/iptvmirror/internal/safeurl"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the relay, directory, logo and event endpoints answer",
		Args:  cobra.NoArgs,
		RunE: stage("doctor", func(ctx context.Context, log zerolog.Logger) error {
			cfg := cur.cfg
			eps := []health.Endpoint{
				{Name: "channels", URL: cfg.ChannelsURL},
				{Name: "daddy", URL: cfg.DaddyURL},
				{Name: "logos", URL: cfg.LogosURL},
				{Name: "ppv", URL: cfg.PPVAPIURL},
			}
			if cfg.ProxyList != "" && safeurl.IsHTTPOrHTTPS(cfg.ProxyList) {
				eps = append(eps, health.Endpoint{Name: "proxy list", URL: cfg.ProxyList})
			}
			results := health.CheckEndpoints(ctx, httpclient.WithTimeout(cfg.Timeout), cfg.UserAgent, eps)
			printTable(report.Endpoints(results))
			failed := lo.Filter(results, func(r health.Result, _ int) bool { return !r.OK() })
			for _, r := range failed {
				log.Warn().Err(r.Err).Str("endpoint", r.Endpoint.Name).Str("url", r.Endpoint.URL).Msg("endpoint check failed")
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d of %d endpoints failed", len(failed), len(results))
			}
			return nil
		}),
	}
}
