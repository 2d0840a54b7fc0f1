// Package version exposes build metadata stamped at link time.
package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags "-X github.com/hostlens/hostlens-agent/pkg/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// Get returns the current build's info.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// ShortCommit returns the commit hash truncated to 8 characters.
func (i Info) ShortCommit() string {
	if len(i.GitCommit) > 8 {
		return i.GitCommit[:8]
	}
	return i.GitCommit
}

// String renders a single line, e.g.
// "hostlens-agent 1.2.0 (commit abc12345, 2026-01-01, go1.24.0 linux/amd64)".
func (i Info) String() string {
	return fmt.Sprintf("hostlens-agent %s (commit %s, %s, %s %s/%s)",
		i.Version, i.ShortCommit(), i.BuildDate, i.GoVersion, i.OS, i.Arch)
}
