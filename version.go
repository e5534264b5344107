package beerus

import (
	"fmt"
	"runtime"
)

// Build metadata, set at link time with
// -ldflags "-X github.com/eigerco/beerus.CurrentVersion=...".
var (
	CurrentVersion = "0.0.0-dev"
	CurrentCommit  = ""
	BuildDate      = ""
)

// Platform and GoVersion describe the running binary.
var (
	GoVersion = runtime.Version()
	Platform  = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
)

// Version returns "<version>-<commit>", or just the version for builds
// without a commit.
func Version() string {
	if CurrentCommit == "" {
		return CurrentVersion
	}
	return CurrentVersion + "-" + CurrentCommit
}
