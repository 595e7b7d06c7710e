package common

import (
	"fmt"
	"runtime"
)

// AppName is the product name shown in the banner, CLI and MCP handshake
const AppName = "Vipaii"

// Set via -ldflags "-X github.com/ternarybob/vipaii/internal/common.Version=..."
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Build     string `json:"build"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

func GetVersion() string {
	return Version
}

// GetVersionInfo returns the build metadata of the running binary
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Name:      AppName,
		Version:   Version,
		Build:     Build,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
	}
}

// String renders the info on one line, e.g. "Vipaii dev (build: unknown, commit: unknown, go1.25.3)"
func (v VersionInfo) String() string {
	return fmt.Sprintf("%s %s (build: %s, commit: %s, %s)", v.Name, v.Version, v.Build, v.GitCommit, v.GoVersion)
}
