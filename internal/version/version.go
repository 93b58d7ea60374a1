package version

import "fmt"

// Version contains the application version information.
// This should be set via build-time ldflags in release builds:
// go build -ldflags "-X git.home.luguber.info/inful/astrokit/internal/version.Version=v0.4.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String is the line printed by astro --version.
func String() string {
	return fmt.Sprintf("astro %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
