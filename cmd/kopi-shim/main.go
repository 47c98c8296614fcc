// Command kopi-shim is the component H fast-path dispatcher of
// spec.md §4.6: every generated shim under <kopi_home>/shims is a copy
// of this single binary. It resolves argv[0] to a tool name, resolves
// the active version, finds (or optionally auto-installs) the matching
// JDK, and replaces the current process with the real tool — all
// within the spec's 50ms cold-to-exec budget, so this entry point
// avoids cobra and any flag-parsing framework entirely.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/kopi-vm/kopi/internal/config"
	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/kopihome"
	"github.com/kopi-vm/kopi/internal/locking"
	"github.com/kopi-vm/kopi/internal/metadata"
	"github.com/kopi-vm/kopi/internal/metadata/foojaysource"
	"github.com/kopi-vm/kopi/internal/metadata/httpsource"
	"github.com/kopi-vm/kopi/internal/metadata/localsource"
	"github.com/kopi-vm/kopi/internal/metadata/privatesource"
	"github.com/kopi-vm/kopi/internal/shim"
)

func main() {
	os.Exit(run())
}

func run() int {
	paths, err := kopihome.Resolve()
	if err != nil {
		fmt.Fprintln(os.Stderr, "kopi-shim: resolving KOPI_HOME:", err)
		return 1
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return fail(err)
	}

	runner := &shim.Runner{
		Paths:      paths,
		Config:     *cfg,
		Provider:   buildProvider(cfg),
		Controller: locking.NewController(paths.Locks, locking.BackendAuto),
		Confirm:    confirm,
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "kopi-shim: reading current directory:", err)
		return 1
	}

	timeout, _, err := locking.ResolveTimeout(nil, os.Getenv("KOPI_LOCK_TIMEOUT"), cfg.LockTimeout())
	if err != nil {
		return fail(err)
	}

	toolPath, err := runner.Dispatch(os.Args[0], cwd, locking.Options{Timeout: timeout})
	if err != nil {
		return fail(err)
	}

	if err := shim.Exec(toolPath, os.Args[1:]); err != nil {
		return fail(err)
	}
	return 0
}

// buildProvider mirrors internal/cmd's buildProvider; duplicated here
// (rather than imported) because the shim is the one binary in the
// repo that must not pull in anything the main CLI's app.go wires
// beyond what Dispatch actually needs.
func buildProvider(cfg *config.Config) *metadata.Provider {
	var sources []metadata.Source
	sc := cfg.Metadata.Sources
	if sc.Private.Enabled {
		sources = append(sources, privatesource.New(sc.Private.Endpoint, sc.Private.Token))
	}
	if sc.HTTP.Enabled {
		sources = append(sources, httpsource.New(sc.HTTP.Endpoint, sc.HTTP.Token))
	}
	if sc.Foojay.Enabled {
		sources = append(sources, foojaysource.New())
	}
	if sc.Local.Enabled {
		sources = append(sources, localsource.New(sc.Local.Dir))
	}
	if len(sources) == 0 {
		sources = append(sources, foojaysource.New())
	}
	return metadata.NewProvider(sources...)
}

// confirm is the shim's own minimal y/n prompt, used only on the rare
// auto-install path; it deliberately skips a terminal-UI library so
// the normal hot path never links against one. It asks only when stdin
// is a terminal; otherwise the install is declined without prompting.
func confirm(message string) (bool, error) {
	if info, err := os.Stdin.Stat(); err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return false, nil
	}
	fmt.Fprint(os.Stderr, message+" [y/N] ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	switch line[:1] {
	case "y", "Y":
		return true, nil
	default:
		return false, nil
	}
}

func fail(err error) int {
	kerr, ok := err.(*kopierr.Error)
	if !ok {
		kerr = kopierr.Wrap(kopierr.KindUnknown, err.Error(), nil)
	}
	ctx := kopierr.NewContext(kerr)
	fmt.Fprintln(os.Stderr, "kopi-shim:", ctx.Render())
	return kerr.ExitCode()
}
