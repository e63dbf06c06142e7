// Package build carries version information stamped in with -ldflags:
//
//	go build -ldflags "-X github.com/rohmanhakim/wiki-crawler/internal/build.Version=1.2.0 \
//	  -X github.com/rohmanhakim/wiki-crawler/internal/build.Commit=$(git rev-parse --short HEAD)" ./cmd/wikicrawl
package build

import "fmt"

const projectURL = "https://github.com/rohmanhakim/wiki-crawler"

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion returns the version string with commit hash appended.
// Format: "Version+Commit" (e.g., "1.0.0+abc123")
func FullVersion() string {
	return Version + "+" + Commit
}

// Describe is the line printed by `wikicrawl version`.
func Describe() string {
	return fmt.Sprintf("wikicrawl %s (built %s)", FullVersion(), BuildTime)
}

// UserAgent identifies the crawler to Wikipedia, as its robot policy asks.
func UserAgent() string {
	return fmt.Sprintf("wiki-crawler/%s (+%s)", Version, projectURL)
}
