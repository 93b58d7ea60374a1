// Package fetch retrieves external artifacts for install actions.
//
// Fetchers never retry. A failed fetch is reported with the URL and left for
// the user to re-run; install actions are idempotent, so re-running is safe.
package fetch

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/astrokit/internal/config"
	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
)

// Fetcher places the artifact described by src at dest.
type Fetcher interface {
	Fetch(ctx context.Context, src config.Source, dest string) error
}

// Mux dispatches to a Fetcher by source kind.
type Mux struct {
	byKind map[config.SourceKind]Fetcher
}

// NewMux returns a Mux with the default HTTP and git fetchers.
func NewMux() *Mux {
	return &Mux{byKind: map[config.SourceKind]Fetcher{
		config.SourceHTTP: NewHTTPFetcher(nil),
		config.SourceGit:  &GitFetcher{},
	}}
}

// Handle registers f for kind, replacing any previous fetcher.
func (m *Mux) Handle(kind config.SourceKind, f Fetcher) *Mux {
	m.byKind[kind] = f
	return m
}

// Fetch implements Fetcher.
func (m *Mux) Fetch(ctx context.Context, src config.Source, dest string) error {
	f, ok := m.byKind[src.Kind]
	if !ok {
		return ferrors.ConfigError(fmt.Sprintf("no fetcher for source kind %q", src.Kind)).
			WithContext(ferrors.KeyURL, src.URL).
			Build()
	}
	return f.Fetch(ctx, src, dest)
}

func fetchErr(err error, src config.Source, message string) error {
	return ferrors.WrapError(err, ferrors.CategoryFetch, message).
		Rerunnable().
		WithContext(ferrors.KeyURL, src.URL).
		Build()
}
