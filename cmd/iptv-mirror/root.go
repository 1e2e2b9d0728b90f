package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/snapetech/iptvmirror/internal/config"
	"github.com/snapetech/iptvmirror/internal/logging"
	"github.com/snapetech/iptvmirror/internal/metrics"
	"github.com/snapetech/iptvmirror/internal/report"
)

var version = "dev"

var (
	envFile     string
	sourcesFile string
	debug       bool
	jsonLogs    bool
	markdown    bool
	metricsFile string
)

// app is the state shared by every subcommand after the root pre-run.
type app struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	runID   string
}

var cur app

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "iptv-mirror",
		Short:         "Validate IPTV mirror links and keep playlists pointed at working streams",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFile(envFile); err != nil {
				return fmt.Errorf("env file %s: %w", envFile, err)
			}
			cfg := config.Load()
			if err := cfg.LoadSourcesFile(sourcesFile); err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics-file") || cfg.MetricsFile == "" {
				cfg.MetricsFile = metricsFile
			}
			cur = app{
				cfg:     cfg,
				metrics: metrics.New(),
				runID:   logging.Init(debug, jsonLogs),
			}
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&envFile, "env-file", ".env", "KEY=value file loaded before the environment is read")
	pf.StringVarP(&sourcesFile, "config", "c", os.Getenv("IPTV_MIRROR_SOURCES_FILE"), "YAML sources file (endpoints, templates, epg feeds)")
	pf.BoolVar(&debug, "debug", false, "Enable debug logging")
	pf.BoolVar(&jsonLogs, "json-logs", false, "Log JSON lines instead of console output")
	pf.BoolVar(&markdown, "markdown", false, "Render summary tables as markdown")
	pf.StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics here after the run (textfile collector)")

	root.AddCommand(
		newUpdateCmd(),
		newFetchChannelsCmd(),
		newValidateCmd(),
		newCompleteCmd(),
		newAssembleCmd(),
		newScrapeDaddyCmd(),
		newScrapePPVCmd(),
		newEPGCmd(),
		newProxiesCmd(),
		newCacheCmd(),
		newDoctorCmd(),
		newPublishCmd(),
	)
	return root
}

// stage runs fn as the named stage, records its outcome and flushes metrics.
func stage(name string, fn func(ctx context.Context, log zerolog.Logger) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log := logging.Component(name)
		err := fn(cmd.Context(), log)
		cur.metrics.StageDone(name, err)
		if werr := cur.metrics.WriteTextfile(cur.cfg.MetricsFile); werr != nil {
			log.Warn().Err(werr).Str("path", cur.cfg.MetricsFile).Msg("write metrics")
		}
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
}

func printTable(t *report.Table) {
	t.Markdown = markdown
	fmt.Fprintln(os.Stdout, t.String())
}
