package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/snapetech/iptvmirror/internal/publish"
	"github.com/snapetech/iptvmirror/internal/report"
)

func newPublishCmd() *cobra.Command {
	var (
		message string
		push    bool
		noGit   bool
		noS3    bool
	)
	cmd := &cobra.Command{
		Use:   "publish [file...]",
		Short: "Commit generated playlists to a git checkout and/or upload them to S3",
		Long: `Publish commits the given files (default: the source playlist and the valid
links file) to IPTV_MIRROR_GIT_REPO and uploads them to IPTV_MIRROR_S3_BUCKET.
Either target is skipped when it is not configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return stage("publish", func(ctx context.Context, log zerolog.Logger) error {
				return publishFiles(ctx, log, args, message, push, !noGit, !noS3)
			})(cmd, args)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&message, "message", "m", "", "Commit message (default: \"Update playlists <time>\")")
	f.BoolVar(&push, "push", false, "Push the commit to IPTV_MIRROR_GIT_REMOTE")
	f.BoolVar(&noGit, "no-git", false, "Skip the git commit")
	f.BoolVar(&noS3, "no-s3", false, "Skip the S3 upload")
	return cmd
}

func publishFiles(ctx context.Context, log zerolog.Logger, files []string, message string, push, useGit, useS3 bool) error {
	cfg := cur.cfg
	if len(files) == 0 {
		files = []string{cfg.SourcePlaylist, cfg.LinksFile}
	}
	files = lo.Uniq(files)
	missing := lo.Filter(files, func(f string, _ int) bool {
		_, err := os.Stat(f)
		return err != nil
	})
	if len(missing) > 0 {
		return fmt.Errorf("missing files: %s", strings.Join(missing, ", "))
	}
	useGit = useGit && cfg.GitRepo != ""
	useS3 = useS3 && cfg.S3Bucket != ""
	if !useGit && !useS3 {
		return errors.New("nothing to publish to: set IPTV_MIRROR_GIT_REPO and/or IPTV_MIRROR_S3_BUCKET")
	}

	summary := report.NewTable("Target", "Result")
	if useGit {
		g := publish.Git{
			RepoPath:    cfg.GitRepo,
			Files:       files,
			Message:     message,
			AuthorName:  cfg.GitAuthorName,
			AuthorEmail: cfg.GitAuthorEmail,
			Token:       cfg.GitToken,
		}
		if push {
			g.Remote = cfg.GitRemote
		}
		hash, err := g.Commit(ctx)
		switch {
		case errors.Is(err, publish.ErrNothingToCommit):
			log.Info().Msg("playlists unchanged, nothing committed")
			summary.Row("git", "unchanged")
		case err != nil:
			return err
		default:
			log.Info().Str("commit", hash.String()).Bool("pushed", g.Remote != "").Msg("playlists committed")
			summary.Row("git", hash.String()[:12])
		}
	}
	if useS3 {
		up := publish.S3{Bucket: cfg.S3Bucket, Prefix: cfg.S3Prefix, Profile: cfg.S3Profile}
		keys, err := up.Upload(ctx, files)
		if err != nil {
			return err
		}
		log.Info().Str("bucket", cfg.S3Bucket).Strs("keys", keys).Msg("playlists uploaded")
		summary.Row("s3://"+cfg.S3Bucket, strings.Join(keys, ", "))
	}
	printTable(summary)
	return nil
}
