// Package uninstall implements component G of spec.md §4.7:
// disambiguation, active-version safety checks, locked removal, and
// orphaned-sidecar sweeping.
//
// Has no teacher analogue (jenvy never removes anything it installs);
// grounded in original_source's tests/uninstall_integration.rs and
// uninstall_locking.rs for the step order, and in
// arianlopezc-Trabuco/internal/prompts for the survey.Confirm
// interactive-confirmation shape this package reuses for the
// "really remove the active version?" prompt.
package uninstall

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/kopihome"
	"github.com/kopi-vm/kopi/internal/locking"
	"github.com/kopi-vm/kopi/internal/resolver"
	"github.com/kopi-vm/kopi/internal/storage"
	"github.com/kopi-vm/kopi/internal/version"
)

// Options configures one uninstall invocation.
type Options struct {
	All         bool
	Force       bool
	LockOptions locking.Options
	// Confirm overrides the interactive prompt for tests and
	// non-interactive callers; nil means use survey.AskOne.
	Confirm func(message string) (bool, error)
	// Notify receives the user-visible notice spec.md §4.7 step 3
	// mandates when --force skips a confirmation the user would
	// otherwise have seen; nil discards it.
	Notify func(message string)
}

func (o Options) notify(message string) {
	if o.Notify != nil {
		o.Notify(message)
	}
}

// Uninstaller composes storage enumeration, the resolver's "is this
// the active version" checks, and the lock controller.
type Uninstaller struct {
	Paths      kopihome.Paths
	Controller *locking.Controller
}

func New(paths kopihome.Paths, controller *locking.Controller) *Uninstaller {
	return &Uninstaller{Paths: paths, Controller: controller}
}

// candidateList is the cause wrapped into the InvalidArgument error
// Resolve returns when multiple installations match the request and
// --all was not given.
type candidateList struct {
	candidates []storage.InstalledJdk
}

func (c *candidateList) Error() string {
	names := make([]string, len(c.candidates))
	for i, jdk := range c.candidates {
		names[i] = storage.DirName(jdk.Distribution, jdk.Version)
	}
	return "multiple installations match: " + strings.Join(names, ", ") + " (use --all or narrow the request)"
}

// Resolve finds the installations req selects, failing if more than
// one matches and opts.All is false.
func (u *Uninstaller) Resolve(req version.Request, opts Options) ([]storage.InstalledJdk, error) {
	matches, err := storage.FindMatchingJdks(u.Paths.Jdks, req)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, kopierr.New(kopierr.KindJdkNotInstalled, req.String())
	}
	if len(matches) > 1 && !opts.All {
		return nil, kopierr.Wrap(kopierr.KindInvalidArgument, "ambiguous uninstall target", &candidateList{candidates: matches})
	}
	return matches, nil
}

func (u *Uninstaller) confirm(message string, opts Options) (bool, error) {
	if opts.Confirm != nil {
		return opts.Confirm(message)
	}
	var ok bool
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: false}, &ok); err != nil {
		return false, kopierr.Wrap(kopierr.KindIO, "reading confirmation", err)
	}
	return ok, nil
}

// isActiveGlobal reports whether jdk is the current global default.
func (u *Uninstaller) isActiveGlobal(jdk storage.InstalledJdk) bool {
	data, err := os.ReadFile(u.Paths.VersionFile)
	if err != nil {
		return false
	}
	req, err := version.ParseRequest(string(data))
	if err != nil {
		return false
	}
	return req.MatchesDistribution(jdk.Distribution) && req.Pattern.Matches(jdk.Version)
}

// isActiveProject reports whether jdk is what the resolver would pick
// starting from the current working directory.
func (u *Uninstaller) isActiveProject(jdk storage.InstalledJdk) bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}
	res, err := resolver.Resolve(cwd, u.Paths)
	if err != nil {
		return false
	}
	return res.Request.MatchesDistribution(jdk.Distribution) && res.Request.Pattern.Matches(jdk.Version)
}

// Uninstall removes every jdk in targets, acquiring the per-install
// lock for each and respecting a concurrently held Installation lock,
// per spec.md §4.7 steps 3-7.
func (u *Uninstaller) Uninstall(targets []storage.InstalledJdk, opts Options) error {
	for _, jdk := range targets {
		if err := u.uninstallOne(jdk, opts); err != nil {
			return err
		}
	}
	return nil
}

func (u *Uninstaller) uninstallOne(jdk storage.InstalledJdk, opts Options) error {
	name := storage.DirName(jdk.Distribution, jdk.Version)

	if active := u.isActiveGlobal(jdk); active {
		if opts.Force {
			opts.notify(fmt.Sprintf("%s is the active global default; removing anyway because --force was given", name))
		} else {
			ok, err := u.confirm(fmt.Sprintf("%s is the active global default. Remove it anyway?", name), opts)
			if err != nil {
				return err
			}
			if !ok {
				return kopierr.New(kopierr.KindInvalidArgument, "uninstall of active global default cancelled")
			}
		}
	}
	if active := u.isActiveProject(jdk); active {
		if opts.Force {
			opts.notify(fmt.Sprintf("%s is the active version for this project; removing anyway because --force was given", name))
		} else {
			ok, err := u.confirm(fmt.Sprintf("%s is the active version for this project. Remove it anyway?", name), opts)
			if err != nil {
				return err
			}
			if !ok {
				return kopierr.New(kopierr.KindInvalidArgument, "uninstall of active project version cancelled")
			}
		}
	}

	installGuard, err := u.Controller.Acquire(locking.Installed(jdk.Distribution.String(), jdk.Version.String()), opts.LockOptions)
	if err != nil {
		return err
	}
	defer installGuard.Release()

	// The installer locks Installation(<package id>); the sidecar records
	// that id, and the directory name stands in when there is no sidecar.
	lockID := name
	if sc, ok, _ := storage.ReadSidecar(u.Paths.SidecarPath(name)); ok && sc.Package.ID != "" {
		lockID = sc.Package.ID
	}
	if held, err := u.Controller.IsHeld(locking.Installation(lockID)); err != nil {
		return err
	} else if held {
		return kopierr.New(kopierr.KindLockBackendUnavailable, "a concurrent install of "+name+" is in progress")
	}

	if err := removeInstallDir(jdk.InstallPath); err != nil {
		return err
	}

	sidecarPath := u.Paths.SidecarPath(name)
	if err := os.Remove(sidecarPath); err != nil && !os.IsNotExist(err) {
		return kopierr.Wrap(kopierr.KindIO, "removing sidecar metadata", err)
	}

	return nil
}

// removeInstallDir recursively removes path, clearing read-only
// attributes first on Windows (spec.md §4.7 step 5's POSIX/Windows
// split). A failed removal, including a Windows sharing violation, is
// returned as is; it is not retried.
func removeInstallDir(path string) error {
	if runtime.GOOS == "windows" {
		_ = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			return os.Chmod(p, 0o666)
		})
	}
	if err := os.RemoveAll(path); err != nil {
		return kopierr.Wrap(kopierr.KindIO, "removing installation directory", err)
	}
	return nil
}

// SweepOrphans walks <kopi_home>/jdks for sidecars whose install
// directory no longer exists, per spec.md §4.7 step 8.
func SweepOrphans(jdksDir string) ([]string, error) {
	entries, err := os.ReadDir(jdksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, kopierr.Wrap(kopierr.KindIO, "reading jdks directory", err)
	}

	var orphans []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		installName := strings.TrimSuffix(entry.Name(), ".meta.json")
		installDir := filepath.Join(jdksDir, installName)
		if _, err := os.Stat(installDir); os.IsNotExist(err) {
			orphans = append(orphans, filepath.Join(jdksDir, entry.Name()))
		}
	}
	return orphans, nil
}

// RemoveOrphans deletes every sidecar path in orphans.
func RemoveOrphans(orphans []string) error {
	for _, path := range orphans {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return kopierr.Wrap(kopierr.KindIO, "removing orphaned sidecar "+path, err)
		}
	}
	return nil
}
