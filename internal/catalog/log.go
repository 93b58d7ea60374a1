package catalog

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/astrokit/internal/logfields"
	"git.home.luguber.info/inful/astrokit/internal/observability"
)

// warnOptional logs a failed optional package. The component name comes
// from the context set by the installer.
func warnOptional(ctx context.Context, pkg string, err error) {
	observability.WarnContext(ctx, "Optional package failed to install",
		slog.String("package", pkg),
		logfields.Error(err))
}
