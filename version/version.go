// Package version holds build metadata injected via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	// GitRelease is the release tag (set by ldflags).
	GitRelease = "dev"

	// GitCommit is the commit hash (set by ldflags).
	GitCommit = "unknown"

	// GitCommitDate is the commit date (set by ldflags).
	GitCommitDate = "unknown"

	// GoInfo describes the toolchain that built the binary.
	GoInfo = fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
)
