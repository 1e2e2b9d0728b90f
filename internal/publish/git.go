// Package publish commits generated playlists to a git checkout and uploads them to S3.
package publish

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// ErrNothingToCommit is returned when none of the files changed.
var ErrNothingToCommit = errors.New("nothing to commit")

// Git stages Files in the worktree at RepoPath and commits them.
type Git struct {
	RepoPath    string
	Files       []string // absolute, or relative to the working directory
	Message     string
	AuthorName  string
	AuthorEmail string
	// Remote is pushed to after a commit when set.
	Remote string
	Token  string
}

// Commit stages Files, commits when any of them changed and optionally pushes.
func (g Git) Commit(ctx context.Context) (plumbing.Hash, error) {
	repo, err := git.PlainOpenWithOptions(g.RepoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("open repo %s: %w", g.RepoPath, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("worktree: %w", err)
	}
	root := wt.Filesystem.Root()
	var rels []string
	for _, f := range g.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("%s is outside %s: %w", f, root, err)
		}
		rel = filepath.ToSlash(rel)
		if _, err := wt.Add(rel); err != nil {
			return plumbing.ZeroHash, fmt.Errorf("git add %s: %w", rel, err)
		}
		rels = append(rels, rel)
	}
	status, err := wt.Status()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("git status: %w", err)
	}
	changed := false
	for _, rel := range rels {
		if fs, ok := status[rel]; ok && fs.Staging != git.Unmodified && fs.Staging != git.Untracked {
			changed = true
			break
		}
	}
	if !changed {
		return plumbing.ZeroHash, ErrNothingToCommit
	}
	msg := g.Message
	if msg == "" {
		msg = "Update playlists " + time.Now().UTC().Format(time.DateTime)
	}
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: g.AuthorName, Email: g.AuthorEmail, When: time.Now()},
	})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("git commit: %w", err)
	}
	if g.Remote == "" {
		return hash, nil
	}
	opts := &git.PushOptions{RemoteName: g.Remote}
	if g.Token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "oauth2", Password: g.Token}
	}
	if err := repo.PushContext(ctx, opts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return hash, fmt.Errorf("git push %s: %w", g.Remote, err)
	}
	return hash, nil
}
