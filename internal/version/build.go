package version

import "fmt"

// Build information, set at link time via -ldflags.
//
//nolint:gochecknoglobals // Build metadata injected by the linker
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Repository coordinates for release checks.
const (
	RepoOwner = "gadrian78"
	RepoName  = "he-tokens-snapshot"
)

// String returns the human-readable build version.
func String() string {
	s := Version
	if Commit != "" {
		s = fmt.Sprintf("%s (%s)", s, Commit)
	}
	if Date != "" {
		s = fmt.Sprintf("%s built %s", s, Date)
	}
	return s
}
