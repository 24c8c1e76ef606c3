// Package buildinfo carries build metadata injected at link time:
//
//	go build -ldflags "\
//	  -X 'github.com/m3rciful/topupbot/core/buildinfo.Version=v0.3.0' \
//	  -X 'github.com/m3rciful/topupbot/core/buildinfo.Commit=abcdef0' \
//	  -X 'github.com/m3rciful/topupbot/core/buildinfo.Date=2026-10-19T12:00:00Z'" ./cmd/topupbot
package buildinfo

// Defaults are used for local runs.
var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)
