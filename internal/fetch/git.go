package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/astrokit/internal/config"
	"git.home.luguber.info/inful/astrokit/internal/logfields"
)

// GitFetcher maintains a checkout of one branch. An existing checkout is
// fetched and hard reset to the remote branch; otherwise the branch is cloned
// into a temporary sibling directory and renamed into place.
type GitFetcher struct {
	Progress io.Writer // optional clone/fetch progress output
}

// Fetch implements Fetcher.
func (g *GitFetcher) Fetch(ctx context.Context, src config.Source, dest string) error {
	branch := src.Ref
	if branch == "" {
		branch = "main"
	}
	if _, err := os.Stat(filepath.Join(dest, ".git")); err == nil {
		return g.update(ctx, src, branch, dest)
	}
	return g.clone(ctx, src, branch, dest)
}

func (g *GitFetcher) clone(ctx context.Context, src config.Source, branch, dest string) error {
	partial := dest + ".partial"
	if err := os.RemoveAll(partial); err != nil {
		return fetchErr(err, src, "remove stale partial clone")
	}
	slog.DebugContext(ctx, "Cloning repository", logfields.URL(src.URL), slog.String("branch", branch), logfields.Path(dest))

	repository, err := git.PlainCloneContext(ctx, partial, false, &git.CloneOptions{
		URL:           src.URL,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		Progress:      g.Progress,
	})
	if err != nil {
		_ = os.RemoveAll(partial)
		return fetchErr(err, src, "clone failed")
	}

	// A directory without .git at dest is leftover content, not a checkout.
	if err := os.RemoveAll(dest); err != nil {
		return fetchErr(err, src, "remove previous content")
	}
	if err := os.Rename(partial, dest); err != nil {
		return fetchErr(err, src, "move clone into place")
	}
	logCheckout(ctx, repository, src, dest, "Repository cloned")
	return nil
}

func (g *GitFetcher) update(ctx context.Context, src config.Source, branch, dest string) error {
	repository, err := git.PlainOpen(dest)
	if err != nil {
		return fetchErr(err, src, "open existing checkout")
	}
	refspec := ggitcfg.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/remotes/origin/%s", branch, branch))
	err = repository.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		RemoteURL:  src.URL,
		RefSpecs:   []ggitcfg.RefSpec{refspec},
		Tags:       git.NoTags,
		Force:      true,
		Progress:   g.Progress,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fetchErr(err, src, "fetch failed")
	}

	remoteRef, err := repository.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return fetchErr(err, src, "resolve remote branch")
	}
	wt, err := repository.Worktree()
	if err != nil {
		return fetchErr(err, src, "open worktree")
	}
	if err := wt.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
		return fetchErr(err, src, "reset to remote branch")
	}
	logCheckout(ctx, repository, src, dest, "Repository updated")
	return nil
}

func logCheckout(ctx context.Context, repository *git.Repository, src config.Source, dest, msg string) {
	attrs := []slog.Attr{logfields.URL(src.URL), logfields.Path(dest)}
	if ref, err := repository.Head(); err == nil {
		attrs = append(attrs, slog.String("commit", ref.Hash().String()[:8]))
	}
	slog.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}
