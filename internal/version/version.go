package version

import "fmt"

// Build metadata, set with -ldflags "-X github.com/oshokin/catpoint/internal/version.Version=...".
var (
	// Version is the release tag of the build.
	Version = "0.1.0-dev"
	// Commit is the short git SHA of the build.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Short returns the release tag.
func Short() string {
	return Version
}

// Full returns the release tag with commit and build time.
func Full() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime)
}
