// Package buildinfo exposes version information stamped at link time:
//
//	go build -ldflags "-X github.com/yndnr/secdesk-go/internal/infra/buildinfo.Version=v1.2.0"
//
// Commit and GoVersion fall back to what the Go toolchain embedded in the
// binary when they are not stamped.
package buildinfo
