// Package version reports build information for the orchestrator binary.
//
// Version, git commit, branch and build time are set at compile time:
//
//	go build -ldflags "-X github.com/kbukum/orchestrator/version.Version=1.0.0"
//
// Anything left unset is read from the module build info.
package version
