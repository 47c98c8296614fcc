// Package shim implements component H of spec.md §4.6: the hard-
// latency-budget dispatcher that a generated shim executable runs as
// its entire program. It resolves argv[0] to a tool name, resolves the
// active version, finds (or auto-installs) the matching JDK, and
// replaces the current process with the real tool.
//
// Has no teacher analogue (jenvy never re-executes anything; its
// providers only ever fetch and unpack once). The algorithm itself is
// spec.md §4.6's own numbered steps; the argv[0]-to-tool-name parsing
// follows the same "strip directory, strip platform suffix" shape the
// teacher's internal/utils path helpers use for install-directory
// names, generalized to executable names instead of directory names.
package shim

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/kopi-vm/kopi/internal/config"
	"github.com/kopi-vm/kopi/internal/install"
	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/kopihome"
	"github.com/kopi-vm/kopi/internal/locking"
	"github.com/kopi-vm/kopi/internal/metadata"
	"github.com/kopi-vm/kopi/internal/resolver"
	"github.com/kopi-vm/kopi/internal/storage"
)

// Registry is the allowlist of tool names a shim is permitted to
// dispatch to (spec.md §4.6 step 2). Generated shims are named after
// one of these; anything else is rejected before any filesystem work.
var Registry = map[string]bool{
	"java": true, "javac": true, "javadoc": true, "javap": true,
	"jar": true, "jarsigner": true, "jcmd": true, "jconsole": true,
	"jdb": true, "jdeps": true, "jfr": true, "jlink": true,
	"jmap": true, "jps": true, "jshell": true, "jstack": true,
	"jstat": true, "keytool": true, "rmiregistry": true, "serialver": true,
}

// Confirm is injected so tests can supply a non-interactive or fake
// prompt; the kopi-shim binary wires it to an isatty-gated prompt.
type Confirm func(message string) (bool, error)

// Runner carries everything step 1-6 of the dispatcher needs; Exec
// (step 7) is a free function below since it never returns on success.
type Runner struct {
	Paths      kopihome.Paths
	Config     config.Config
	Provider   *metadata.Provider
	Controller *locking.Controller
	Confirm    Confirm
}

// ToolName implements step 1: strip any directory prefix and the
// platform executable suffix from argv[0].
func ToolName(argv0 string) string {
	name := filepath.Base(argv0)
	if runtime.GOOS == "windows" {
		name = strings.TrimSuffix(name, ".exe")
	}
	return name
}

// ValidateToolName implements step 2: reject path separators, null
// bytes, and anything not in the registry, before any disk access.
func ValidateToolName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\\x00") || name == ".." {
		return kopierr.New(kopierr.KindSecurity, "refusing to dispatch to an invalid tool name")
	}
	if !Registry[name] {
		return kopierr.New(kopierr.KindToolNotFound, "unknown tool: "+name)
	}
	return nil
}

// Dispatch runs steps 3-6 and returns the resolved bin/<tool> path
// ready for Exec, or an error carrying the kind-specific exit code
// spec.md §6 maps. cwd is the directory the resolver starts its
// ancestor walk from (normally the process's working directory).
func (r *Runner) Dispatch(argv0, cwd string, lockOpts locking.Options) (string, error) {
	toolName := ToolName(argv0)
	if err := ValidateToolName(toolName); err != nil {
		return "", err
	}

	resolution, err := resolver.Resolve(cwd, r.Paths)
	if err != nil {
		return "", err
	}

	matches, err := storage.FindMatchingJdks(r.Paths.Jdks, resolution.Request)
	if err != nil {
		return "", err
	}

	if len(matches) == 0 {
		installed, err := r.autoInstall(resolution.Request, lockOpts)
		if err != nil {
			return "", err
		}
		matches = []storage.InstalledJdk{installed}
	}

	jdk, ok := storage.HighestVersion(matches)
	if !ok {
		return "", kopierr.New(kopierr.KindJdkNotInstalled, resolution.Request.String())
	}

	name := storage.DirName(jdk.Distribution, jdk.Version)
	binDir, err := jdk.ResolveBinPath(r.Paths.SidecarPath(name))
	if err != nil {
		return "", err
	}

	toolPath := filepath.Join(binDir, toolExeName(toolName))
	if _, err := os.Stat(toolPath); err != nil {
		entries, _ := os.ReadDir(binDir)
		var available []string
		for _, e := range entries {
			available = append(available, e.Name())
		}
		return "", kopierr.New(kopierr.KindToolNotFound,
			fmt.Sprintf("%s not found in %s (available: %s)", toolName, binDir, strings.Join(available, ", ")))
	}
	return toolPath, nil
}

// autoInstall implements the auto-install branch of step 4, gated by
// r.Config.AutoInstall and (when prompting) r.Confirm.
func (r *Runner) autoInstall(req resolver.Request, lockOpts locking.Options) (storage.InstalledJdk, error) {
	ai := r.Config.AutoInstall
	if !ai.Enabled {
		return storage.InstalledJdk{}, kopierr.New(kopierr.KindJdkNotInstalled, req.String())
	}
	if ai.Prompt {
		ok, err := r.Confirm(fmt.Sprintf("%s is not installed. Install it now?", req.String()))
		if err != nil || !ok {
			return storage.InstalledJdk{}, kopierr.New(kopierr.KindJdkNotInstalled, req.String())
		}
	}

	timeout := lockOpts.Timeout
	if ai.TimeoutSecs > 0 {
		timeout = locking.FiniteTimeout(time.Duration(ai.TimeoutSecs) * time.Second)
	}
	installOpts := install.Options{LockOptions: locking.Options{Timeout: timeout, Cancellation: lockOpts.Cancellation, Observer: lockOpts.Observer}}

	installer := install.New(r.Paths, r.Provider, r.Controller)
	pkg, err := installer.Plan(req, installOpts)
	if err != nil {
		return storage.InstalledJdk{}, remapLockTimeout(err, req)
	}
	installed, err := installer.Install(pkg, installOpts)
	if err != nil {
		return storage.InstalledJdk{}, remapLockTimeout(err, req)
	}
	return installed, nil
}

// remapLockTimeout implements spec.md §7's recovery rule: "lock timeout
// during auto-install -> surface as JdkNotInstalled so the user sees a
// stable message." In practice only Install returns a lock timeout (from
// the Installation lock it holds around download-extract-publish): Plan
// discards the error of its cache write, so a CacheWriter timeout there
// never reaches this function.
func remapLockTimeout(err error, req resolver.Request) error {
	if kopierr.KindOf(err) == kopierr.KindLockTimeout {
		return kopierr.New(kopierr.KindJdkNotInstalled, req.String())
	}
	return err
}

func toolExeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// Exec implements step 7: replace the current process on platforms
// that support exec-replace (everything but Windows, where there is no
// such primitive), or spawn a child and propagate its exit code exactly
// otherwise. It never returns on the exec-replace path's success.
func Exec(toolPath string, args []string) error {
	argv := append([]string{toolPath}, args...)
	if runtime.GOOS != "windows" {
		return syscallExec(toolPath, argv, os.Environ())
	}

	cmd := exec.Command(toolPath, args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	cmd.Env = os.Environ()
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		return kopierr.Wrap(kopierr.KindIO, "spawning "+toolPath, err)
	}
	os.Exit(0)
	return nil
}
