// Package version exposes the build metadata injected with -ldflags, e.g.
//
//	-X github.com/dartmoon/prestashop-build-tools/pkg/version.Version=v1.2.0
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}

// GetFullVersion returns the version with commit, build date and platform.
func GetFullVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, %s/%s)", Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}
