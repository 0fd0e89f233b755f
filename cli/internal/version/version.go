// Package version describes the CLI build.
package version

import (
	"fmt"
	"runtime"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

var (
	// Version is the version of the CLI, set at build time
	Version = "0.1.0"
	// BuildDate is the build date
	BuildDate = "unknown"
	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

// Info holds version information
type Info struct {
	Version   string
	BuildDate string
	GitCommit string
	GoVersion string
	Platform  string
	// Engine is the SQLite library version, when a database was opened
	Engine string
}

// Get returns version information
func Get() Info {
	return Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// Semver parses the CLI version
func (i Info) Semver() (*goversion.Version, error) {
	return goversion.NewVersion(i.Version)
}

// String returns a formatted version string
func (i Info) String() string {
	return fmt.Sprintf("sqlkit version %s (%s %s)", i.Version, i.Platform, i.GoVersion)
}

// FullString returns a detailed version string
func (i Info) FullString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "sqlkit version %s\n", i.Version)
	fmt.Fprintf(&sb, "Build Date: %s\n", i.BuildDate)
	fmt.Fprintf(&sb, "Git Commit: %s\n", i.GitCommit)
	fmt.Fprintf(&sb, "Platform: %s\n", i.Platform)
	fmt.Fprintf(&sb, "Go Version: %s", i.GoVersion)
	if i.Engine != "" {
		fmt.Fprintf(&sb, "\nSQLite: %s", i.Engine)
	}
	return sb.String()
}
