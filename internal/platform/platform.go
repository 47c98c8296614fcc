// Package platform normalizes Go's runtime.GOOS/GOARCH into the
// vendor/provider vocabulary kopi's metadata sources speak (§4.4), and
// detects the C library flavor on Linux (glibc vs musl) since spec.md
// §4.4 says libc is ignored on non-Linux platforms but filters shards
// on Linux.
package platform

import (
	"os"
	"runtime"
)

// Libc identifies the C runtime a Linux shard targets.
type Libc string

const (
	LibcGlibc   Libc = "glibc"
	LibcMusl    Libc = "musl"
	LibcUnknown Libc = ""
)

// Triple is the {os, arch, libc} tuple spec.md §4.4 filters shards by.
type Triple struct {
	OS   string
	Arch string
	Libc Libc
}

// Current returns the triple for the running process.
func Current() Triple {
	return Triple{
		OS:   normalizeOS(runtime.GOOS),
		Arch: normalizeArch(runtime.GOARCH),
		Libc: detectLibc(),
	}
}

func normalizeOS(goos string) string {
	switch goos {
	case "darwin":
		return "macos"
	default:
		return goos
	}
}

func normalizeArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x64"
	case "386":
		return "x86"
	case "arm64":
		return "aarch64"
	case "arm":
		return "arm"
	default:
		return goarch
	}
}

// detectLibc probes for musl's dynamic loader path and reports glibc
// when none is found; it is a best-effort heuristic, not a guarantee, and
// returns LibcUnknown off Linux (where spec.md says it's ignored
// anyway).
func detectLibc() Libc {
	if runtime.GOOS != "linux" {
		return LibcUnknown
	}
	for _, candidate := range []string{
		"/lib/ld-musl-x86_64.so.1",
		"/lib/ld-musl-aarch64.so.1",
	} {
		if _, err := os.Stat(candidate); err == nil {
			return LibcMusl
		}
	}
	return LibcGlibc
}

// Matches reports whether this triple satisfies a shard's declared
// support triple; an empty field on the shard side means "any", and
// Libc is ignored entirely when the triple's OS isn't linux.
func (t Triple) Matches(os, arch string, libc Libc) bool {
	if os != "" && os != t.OS {
		return false
	}
	if arch != "" && arch != t.Arch {
		return false
	}
	if t.OS != "linux" {
		return true
	}
	return libc == "" || libc == t.Libc
}
