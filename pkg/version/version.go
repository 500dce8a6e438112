// Package version exposes the build version baked into the binary.
// The VERSION file is the single source of truth; release tooling bumps
// it and the binary picks it up at compile time.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var embedded string

// Get returns the release version, e.g. "v0.3.1".
func Get() string {
	return strings.TrimSpace(embedded)
}
