// Package resolver implements component E of spec.md §4.1: finding the
// version a directory wants, by walking environment, project files,
// and the global default in strict precedence order. It never touches
// installation state — it reports what was requested, not whether
// that version exists on disk.
//
// Has no direct teacher analogue (jenvy has no project-local version
// file concept at all); grounded in original_source's env/version file
// precedence walk as described by spec.md §4.1 itself, since that is
// the most literal source for this component's algorithm.
package resolver

import (
	"os"
	"path/filepath"

	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/kopihome"
	"github.com/kopi-vm/kopi/internal/version"
)

// Source names where a resolved request came from, for diagnostics and
// for the uninstaller's "is this the active project version" check.
type Source int

const (
	SourceEnv Source = iota
	SourceKopiVersionFile
	SourceJavaVersionFile
	SourceGlobalDefault
)

func (s Source) String() string {
	switch s {
	case SourceEnv:
		return "KOPI_JAVA_VERSION"
	case SourceKopiVersionFile:
		return ".kopi-version"
	case SourceJavaVersionFile:
		return ".java-version"
	case SourceGlobalDefault:
		return "global default"
	default:
		return "unknown"
	}
}

// Resolution is the (VersionRequest, Source) pair spec.md §4.1 returns.
type Resolution struct {
	Request Request
	Source  Source
	Path    string // file path, when Source is a version file
}

// Request is re-exported so callers don't need two import paths for
// the common case of just needing a version.Request.
type Request = version.Request

const EnvVar = "KOPI_JAVA_VERSION"

// Resolve walks the precedence chain starting at startDir (the current
// working directory in normal use), returning NoLocalVersion if
// nothing answers.
func Resolve(startDir string, paths kopihome.Paths) (Resolution, error) {
	if raw := os.Getenv(EnvVar); raw != "" {
		req, err := version.ParseRequest(raw)
		if err != nil {
			return Resolution{}, kopierr.Wrap(kopierr.KindInvalidArgument, "parsing "+EnvVar, err)
		}
		return Resolution{Request: req, Source: SourceEnv}, nil
	}

	if res, ok, err := walkAncestors(startDir); ok || err != nil {
		return res, err
	}

	data, err := os.ReadFile(paths.VersionFile)
	if err == nil {
		req, parseErr := version.ParseRequest(string(data))
		if parseErr != nil {
			return Resolution{}, kopierr.Wrap(kopierr.KindInvalidArgument, "parsing global default version file", parseErr)
		}
		return Resolution{Request: req, Source: SourceGlobalDefault, Path: paths.VersionFile}, nil
	}

	return Resolution{}, kopierr.New(kopierr.KindNoLocalVersion,
		"no version requested: searched "+EnvVar+", .kopi-version/.java-version from "+startDir+" to filesystem root, and "+paths.VersionFile)
}

// walkAncestors searches dir and every parent for .kopi-version, then
// .java-version, per directory, stopping at the first match found
// (spec.md §4.1: ".kopi-version in the same directory dominates").
// A permission error reading a candidate file is treated as "absent",
// not fatal, per spec.md §4.1's termination rule.
func walkAncestors(dir string) (Resolution, bool, error) {
	current := dir
	for {
		for _, candidate := range []struct {
			name   string
			source Source
		}{
			{".kopi-version", SourceKopiVersionFile},
			{".java-version", SourceJavaVersionFile},
		} {
			path := filepath.Join(current, candidate.name)
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			req, parseErr := version.ParseRequest(string(data))
			if parseErr != nil {
				return Resolution{}, true, kopierr.Wrap(kopierr.KindInvalidArgument, "parsing "+path, parseErr)
			}
			return Resolution{Request: req, Source: candidate.source, Path: path}, true, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return Resolution{}, false, nil
		}
		current = parent
	}
}
