// Package version exposes the build identity stamped in via
// -ldflags "-X ...". Binaries built without stamping report dev/unknown.
package version

//nolint:revive // mutable on purpose, the linker writes these
var (
	Version = "dev"
	Commit  = "unknown"
)
