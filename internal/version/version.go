// Package version holds build-time identity for the tracesema CLI,
// overridable via -ldflags the way the teacher's internal/version is.
package version

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)
