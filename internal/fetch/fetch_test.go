package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/astrokit/internal/config"
	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
)

func TestHTTPFetcher(t *testing.T) {
	payload := []byte("PK\x03\x04 pretend jar")
	sum := sha256.Sum256(payload)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/topcat-full.jar" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client())
	dir := t.TempDir()

	t.Run("downloads and renames into place", func(t *testing.T) {
		dest := filepath.Join(dir, "apps", "topcat", "topcat-full.jar")
		src := config.Source{Kind: config.SourceHTTP, URL: srv.URL + "/topcat-full.jar", SHA256: hex.EncodeToString(sum[:])}
		require.NoError(t, f.Fetch(context.Background(), src, dest))

		got, err := os.ReadFile(dest)
		require.NoError(t, err)
		require.Equal(t, payload, got)

		entries, err := os.ReadDir(filepath.Dir(dest))
		require.NoError(t, err)
		require.Len(t, entries, 1, "no temporary files are left behind")
	})

	t.Run("checksum mismatch leaves dest untouched", func(t *testing.T) {
		dest := filepath.Join(dir, "mismatch.jar")
		src := config.Source{Kind: config.SourceHTTP, URL: srv.URL + "/topcat-full.jar", SHA256: "deadbeef"}
		err := f.Fetch(context.Background(), src, dest)
		require.Error(t, err)
		require.True(t, ferrors.HasCategory(err, ferrors.CategoryFetch))
		require.NoFileExists(t, dest)
	})

	t.Run("http error is a rerunnable fetch error", func(t *testing.T) {
		err := f.Fetch(context.Background(), config.Source{Kind: config.SourceHTTP, URL: srv.URL + "/missing"}, filepath.Join(dir, "x"))
		require.Error(t, err)
		classified, ok := ferrors.AsClassified(err)
		require.True(t, ok)
		require.True(t, classified.CanRerun())
		require.Contains(t, err.Error(), "404")
		url, _ := classified.Context().GetString(ferrors.KeyURL)
		require.Equal(t, srv.URL+"/missing", url)
	})
}

func TestMux_UnknownKind(t *testing.T) {
	err := NewMux().Fetch(context.Background(), config.Source{Kind: "svn", URL: "svn://x"}, t.TempDir())
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

type recordingFetcher struct{ calls int }

func (r *recordingFetcher) Fetch(context.Context, config.Source, string) error {
	r.calls++
	return nil
}

func TestMux_Dispatch(t *testing.T) {
	rec := &recordingFetcher{}
	mux := NewMux().Handle(config.SourceGit, rec)
	require.NoError(t, mux.Fetch(context.Background(), config.Source{Kind: config.SourceGit, URL: "https://example.invalid/kit.git"}, t.TempDir()))
	require.Equal(t, 1, rec.calls)
}

func commitFile(t *testing.T, repo *git.Repository, repoPath, name, content string) {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(repoPath, name)), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, name), []byte(content), 0o600))
	_, err = wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit("update "+name, &git.CommitOptions{Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()}})
	require.NoError(t, err)
}

func TestGitFetcher_CloneThenUpdate(t *testing.T) {
	tmp := t.TempDir()
	barePath := filepath.Join(tmp, "remote.git")
	_, err := git.PlainInit(barePath, true)
	require.NoError(t, err)

	seedPath := filepath.Join(tmp, "seed")
	seed, err := git.PlainInit(seedPath, false)
	require.NoError(t, err)
	_, err = seed.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{barePath}})
	require.NoError(t, err)

	commitFile(t, seed, seedPath, "Scripts/visual_foundations.py", "print('v1')\n")
	require.NoError(t, seed.Push(&git.PushOptions{RemoteName: "origin"}))

	head, err := seed.Head()
	require.NoError(t, err)
	branch := head.Name().Short()

	dest := filepath.Join(tmp, "astro", "kit")
	src := config.Source{Kind: config.SourceGit, URL: barePath, Ref: branch}
	g := &GitFetcher{}

	require.NoError(t, g.Fetch(context.Background(), src, dest))
	got, err := os.ReadFile(filepath.Join(dest, "Scripts", "visual_foundations.py"))
	require.NoError(t, err)
	require.Equal(t, "print('v1')\n", string(got))
	require.NoDirExists(t, dest+".partial")

	// Local damage is repaired by the next fetch.
	require.NoError(t, os.WriteFile(filepath.Join(dest, "Scripts", "visual_foundations.py"), []byte("broken"), 0o600))
	commitFile(t, seed, seedPath, "Scripts/foundation_dashboard.py", "app = None\n")
	require.NoError(t, seed.Push(&git.PushOptions{RemoteName: "origin"}))

	require.NoError(t, g.Fetch(context.Background(), src, dest))
	got, err = os.ReadFile(filepath.Join(dest, "Scripts", "visual_foundations.py"))
	require.NoError(t, err)
	require.Equal(t, "print('v1')\n", string(got))
	require.FileExists(t, filepath.Join(dest, "Scripts", "foundation_dashboard.py"))

	local, err := git.PlainOpen(dest)
	require.NoError(t, err)
	localHead, err := local.Head()
	require.NoError(t, err)
	seedHead, err := seed.Head()
	require.NoError(t, err)
	require.Equal(t, seedHead.Hash(), localHead.Hash())
	require.Equal(t, plumbing.NewBranchReferenceName(branch), localHead.Name())
}

func TestGitFetcher_UnknownBranchFails(t *testing.T) {
	tmp := t.TempDir()
	barePath := filepath.Join(tmp, "remote.git")
	_, err := git.PlainInit(barePath, true)
	require.NoError(t, err)

	err = (&GitFetcher{}).Fetch(context.Background(), config.Source{Kind: config.SourceGit, URL: barePath, Ref: "main"}, filepath.Join(tmp, "kit"))
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryFetch))
	require.NoDirExists(t, filepath.Join(tmp, "kit.partial"))
}
