// Package version exposes build metadata injected at link time, e.g.
//
//	go build -ldflags "-X github.com/Sumatoshi-tech/defectmap/pkg/version.Version=v1.2.0"
package version

import (
	"fmt"
	"runtime/debug"
)

// Build metadata, overridden through -ldflags -X.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// InitBinaryVersion fills Version and Commit from the embedded build info
// when they were not set at link time (e.g. "go install ...@v1.2.0").
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == "none" {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == "unknown" {
				Date = setting.Value
			}
		}
	}
}

// String returns the one-line version banner.
func String() string {
	return fmt.Sprintf("defectmap %s (commit: %s, built: %s)", Version, Commit, Date)
}
