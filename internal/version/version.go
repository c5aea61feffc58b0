// Package version holds build metadata injected with -ldflags.
package version

// Version is set at build time: -ldflags "-X github.com/aristath/checkup/internal/version.Version=v1.2.3"
var Version = "dev"

// Commit is the git commit the binary was built from
var Commit = "unknown"
