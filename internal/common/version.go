package common

import "fmt"

// Stamped by the release build:
//
//	go build -ldflags "-X github.com/ternarybob/finsaathi/internal/common.Version=1.2.0 ..."
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// BuildInfo is what /api/version reports
type BuildInfo struct {
	Version   string `json:"version"`
	Build     string `json:"build"`
	GitCommit string `json:"git_commit"`
}

// GetBuildInfo returns the stamped build values
func GetBuildInfo() BuildInfo {
	return BuildInfo{Version: Version, Build: Build, GitCommit: GitCommit}
}

func GetVersion() string {
	return Version
}

// GetFullVersion is the version line printed by -version and crash files
func GetFullVersion() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", Version, Build, GitCommit)
}

// UserAgent identifies this build to the analysis backend
func UserAgent() string {
	return "FinSaathi/" + Version
}
