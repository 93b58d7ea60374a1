package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/astrokit/internal/config"
	"git.home.luguber.info/inful/astrokit/internal/logfields"
)

// HTTPFetcher downloads a single file. The file is written next to dest and
// renamed into place only after it is complete and matches the checksum, so
// an interrupted download never leaves a partial artifact at dest.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher returns a fetcher using client, or a default client with a
// generous timeout when nil.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	return &HTTPFetcher{client: client}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, src config.Source, dest string) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return fetchErr(err, src, "invalid download request")
	}
	req.Header.Set("User-Agent", "astro")

	resp, err := f.client.Do(req)
	if err != nil {
		return fetchErr(err, src, "download failed")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fetchErr(fmt.Errorf("unexpected status %s", resp.Status), src, "download failed")
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fetchErr(err, src, "create destination directory")
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".part-*")
	if err != nil {
		return fetchErr(err, src, "create temporary file")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	hash := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hash), resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fetchErr(err, src, "download interrupted")
	}

	if want := strings.ToLower(strings.TrimSpace(src.SHA256)); want != "" {
		if got := hex.EncodeToString(hash.Sum(nil)); got != want {
			return fetchErr(fmt.Errorf("sha256 mismatch: got %s, want %s", got, want), src, "checksum verification failed")
		}
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return fetchErr(err, src, "move download into place")
	}
	slog.InfoContext(ctx, "Downloaded artifact",
		logfields.URL(src.URL),
		logfields.Path(dest),
		slog.Int64("bytes", written),
		logfields.Duration(time.Since(start)))
	return nil
}
