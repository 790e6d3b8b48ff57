// Package version holds build version information.
package version

// Version is the current modelbench release. Overridden at build time via
// -ldflags "-X github.com/calyptra/modelbench/internal/version.Version=...".
var Version = "0.3.0"
