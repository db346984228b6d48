// Package version exposes build information for whisperd.
//
// Version, git commit and build time are set at compile time
// via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/whisperd/version.Version=1.0.0" ./cmd/whisperd
package version
