// Package pawku holds build metadata for the pawku module.
package pawku

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/mesh-intelligence/pawku/pkg/pawku.Version=...".
var Version = "0.1.0"

// ModulePath is the Go module path.
const ModulePath = "github.com/mesh-intelligence/pawku"
