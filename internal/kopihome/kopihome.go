// Package kopihome centralizes resolution of KOPI_HOME and the standard
// subdirectory layout under it (spec.md §6). It is the single place that
// decides the base directory, resolving the ambiguity spec.md §9 flags:
// every lookup uses KOPI_HOME when set, never falling back to $HOME
// silently once KOPI_HOME diverges from it.
package kopihome

import (
	"os"
	"path/filepath"
)

const envVar = "KOPI_HOME"

// Dir returns the resolved KOPI_HOME: the environment override if set,
// otherwise "$HOME/.kopi".
func Dir() (string, error) {
	if v := os.Getenv(envVar); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".kopi"), nil
}

// Paths bundles every derived path under KOPI_HOME so callers construct
// them once and pass the struct around instead of re-deriving piecemeal.
type Paths struct {
	Root        string
	VersionFile string
	ConfigFile  string
	Jdks        string
	CacheFile   string
	Locks       string
	Shims       string
	Tmp         string
}

// Resolve builds a Paths rooted at the resolved KOPI_HOME. It does not
// create any directory; callers create what they need lazily (e.g. the
// installer creates Jdks/Tmp right before it uses them).
func Resolve() (Paths, error) {
	root, err := Dir()
	if err != nil {
		return Paths{}, err
	}
	return Paths{
		Root:        root,
		VersionFile: filepath.Join(root, "version"),
		ConfigFile:  filepath.Join(root, "config.toml"),
		Jdks:        filepath.Join(root, "jdks"),
		CacheFile:   filepath.Join(root, "cache", "metadata.json"),
		Locks:       filepath.Join(root, "locks"),
		Shims:       filepath.Join(root, "shims"),
		Tmp:         filepath.Join(root, "tmp"),
	}, nil
}

// EnsureDirs creates every directory Paths references (not the files
// themselves), with 0o755 permissions, used by `kopi init` and by the
// installer/cache writer the first time they run against a fresh home.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.Root, p.Jdks, filepath.Dir(p.CacheFile), p.Locks, p.Shims, p.Tmp} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// SidecarPath returns the metadata sidecar path for an installation
// directory name (e.g. "temurin-21.0.5+11"), co-sibling of the install
// directory per spec.md §3.
func (p Paths) SidecarPath(installDirName string) string {
	return filepath.Join(p.Jdks, installDirName+".meta.json")
}

// InstallDir returns the install directory path for a given directory
// name under jdks/.
func (p Paths) InstallDir(installDirName string) string {
	return filepath.Join(p.Jdks, installDirName)
}
