// Package version holds build information set through -ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the semver of the build.
	Version = "0.0.0-dev"
	// Revision is the VCS revision of the build.
	Revision = ""
	// BuildDate is the RFC 3339 time of the build.
	BuildDate = ""
)

func init() {
	if Revision != "" {
		return
	}

	Revision = "unknown"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			Revision = s.Value
		}
	}
}

// String returns the version, revision and Go runtime on one line.
func String() string {
	s := fmt.Sprintf("%s (revision %.12s", Version, Revision)
	if BuildDate != "" {
		s += ", built " + BuildDate
	}

	return s + ", " + runtime.Version() + ")"
}
