// Package version holds the build version, overridable at link time:
//
//	go build -ldflags "-X github.com/gantry-sh/gantry/pkg/version.Version=1.2.3"
package version

// Version is the gantry release version.
var Version = "0.1.0"
