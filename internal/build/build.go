// Package build carries values stamped at link time.
package build

// Version is overridden with -ldflags "-X github.com/gonkers/pkgtools/internal/build.Version=...".
var Version = "dev"
