package locking

import (
	"fmt"
	"regexp"
	"strings"
)

// Scope is the closed tagged variant of spec.md §3: a named mutex
// identity that the controller maps onto a lock-file path. Colliding
// scopes must share a lock — that invariant holds automatically here
// because Label() is the only thing the controller looks at.
type Scope interface {
	Label() string
}

type cacheWriterScope struct{}

func CacheWriter() Scope { return cacheWriterScope{} }

func (cacheWriterScope) Label() string { return "cache-writer" }

type installationScope struct{ packageID string }

// Installation scopes a package being downloaded/extracted/published,
// keyed by its package ID so two installers racing the same package
// serialize on the same file (spec.md P4).
func Installation(packageID string) Scope { return installationScope{packageID: packageID} }

func (s installationScope) Label() string { return "install-" + sanitize(s.packageID) }

type installedScope struct{ distribution, version string }

// Installed scopes an already-installed JDK, used by the uninstaller to
// serialize against concurrent installers/uninstallers of the same
// (distribution, version).
func Installed(distribution, version string) Scope {
	return installedScope{distribution: distribution, version: version}
}

func (s installedScope) Label() string {
	return fmt.Sprintf("installed-%s-%s", sanitize(s.distribution), sanitize(s.version))
}

type shimsScope struct{}

// Shims scopes writes to the shims/ directory (shim (re)generation).
func Shims() Scope { return shimsScope{} }

func (shimsScope) Label() string { return "shims" }

type customScope struct{ name string }

// Custom is the CustomNamed(string) escape hatch of spec.md §3, for
// callers that need a scope kopi's built-in cases don't model.
func Custom(name string) Scope { return customScope{name: name} }

func (s customScope) Label() string { return "custom-" + sanitize(s.name) }

var unsafeLabelChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// sanitize produces a POSIX-safe filename fragment from arbitrary scope
// identifiers (package IDs, version strings) per spec.md §4.3's
// "Labels are sanitized to POSIX-safe filenames" rule.
func sanitize(s string) string {
	s = unsafeLabelChars.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
