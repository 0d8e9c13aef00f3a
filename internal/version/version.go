// Package version reports the changeplan release the binary was built from.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var embedded string

// Get returns the release recorded in the VERSION file, as "vX.Y.Z".
func Get() string {
	return "v" + strings.TrimSpace(embedded)
}

// Resolve prefers a version stamped in through -ldflags and falls back to
// Get for plain `go install` builds, which leave it at "dev" or empty.
func Resolve(stamped string) string {
	switch stamped {
	case "", "dev":
		return Get()
	}
	return stamped
}
