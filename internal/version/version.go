// Package version holds build metadata stamped via -ldflags.
package version

var (
	// Version is the release version, "dev" for local builds.
	Version = "dev"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"

	// GitCommit is the commit the binary was built from.
	GitCommit = "unknown"
)
