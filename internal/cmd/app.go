// Package cmd wires the core packages (resolver, storage, locking,
// metadata, install, uninstall, shim) into the `kopi` command-line
// surface. Per spec.md §1 the CLI surface itself (flag parsing, help
// text) is an external collaborator, not a core component; this
// package is the thin, teacher-grounded adaptation layer that makes
// the core usable from a terminal.
//
// Grounded in the teacher's cmd package: one command per file, a
// package-level Version/BuildDate block (internal/cmd/help.go
// in the teacher), and colored status lines via the same library
// family. Replaces the teacher's hand-rolled `flag`/switch dispatch
// (cmd/download.go, cmd/remote_list.go) with spf13/cobra, already
// present in the teacher's own go.mod dependency set, because a
// command surface this size (install/uninstall/list/use/cache/shim/
// config) outgrows a manual switch the moment subcommands need their
// own flags.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kopi-vm/kopi/internal/config"
	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/kopihome"
	"github.com/kopi-vm/kopi/internal/locking"
	"github.com/kopi-vm/kopi/internal/metadata"
	"github.com/kopi-vm/kopi/internal/metadata/foojaysource"
	"github.com/kopi-vm/kopi/internal/metadata/httpsource"
	"github.com/kopi-vm/kopi/internal/metadata/localsource"
	"github.com/kopi-vm/kopi/internal/metadata/privatesource"
	"github.com/kopi-vm/kopi/internal/output"
)

// Version information, grounded in the teacher's internal/cmd/help.go
// constant block.
const (
	Version   = "0.1.0"
	BuildDate = "2026-07-31"
)

// App bundles the process-wide state every subcommand needs, built
// once in the root command's PersistentPreRunE.
type App struct {
	Paths      kopihome.Paths
	Config     *config.Config
	Printer    *output.Printer
	Controller *locking.Controller
	Provider   *metadata.Provider
	JSON       bool
	LockFlag   string
}

var app *App

// rootFlags holds the persistent flags parsed before any subcommand
// runs.
var rootFlags struct {
	jsonOut     bool
	lockTimeout string
	kopiHome    string
}

// Execute builds and runs the root command; cmd/kopi's main calls this
// and exits with the returned code, per spec.md §7's exit-code policy.
func Execute() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if app != nil {
			return reportError(app.Printer, app.JSON, err)
		}
		return reportError(output.Default(), false, err)
	}
	return 0
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kopi",
		Short:         "kopi manages multiple side-by-side JDK installations",
		Long:          "kopi installs JDKs side-by-side, pins a version per shell/project/global default, and routes java/javac invocations to the right installation.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			app = a
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&rootFlags.jsonOut, "json", false, "emit machine-readable JSON for errors and structured output")
	root.PersistentFlags().StringVar(&rootFlags.lockTimeout, "lock-timeout", "", "override the lock wait budget (seconds, or 'infinite')")
	root.PersistentFlags().StringVar(&rootFlags.kopiHome, "kopi-home", "", "override KOPI_HOME for this invocation")

	root.AddCommand(
		newInstallCmd(),
		newUninstallCmd(),
		newListCmd(),
		newUseCmd(),
		newGlobalCmd(),
		newCacheCmd(),
		newShimCmd(),
		newConfigCmd(),
		newInitCmd(),
	)
	return root
}

// buildApp resolves KOPI_HOME, loads config.toml, and constructs the
// shared controller/provider every subcommand composes with.
func buildApp() (*App, error) {
	if rootFlags.kopiHome != "" {
		os.Setenv("KOPI_HOME", rootFlags.kopiHome)
	}
	paths, err := kopihome.Resolve()
	if err != nil {
		return nil, kopierr.Wrap(kopierr.KindIO, "resolving KOPI_HOME", err)
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}

	printer := output.Default()
	controller := locking.NewController(paths.Locks, locking.BackendAuto)
	provider := buildProvider(cfg)

	return &App{
		Paths:      paths,
		Config:     cfg,
		Printer:    printer,
		Controller: controller,
		Provider:   provider,
		JSON:       rootFlags.jsonOut,
		LockFlag:   rootFlags.lockTimeout,
	}, nil
}

// buildProvider orders the enabled sources private, http, foojay,
// local (not the field order of config.MetadataSources): private and
// http mirrors take priority over the public foojay default, and local
// is last since it's the air-gapped fallback, per spec.md §4.4's
// ordered-fallback policy. With none enabled, foojay alone is used.
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

// lockOptions resolves the timeout precedence of spec.md §4.3 (CLI >
// env > config > default) and wires the CLI's own WaitObserver so
// contention is visible to the user.
func (a *App) lockOptions() (locking.Options, error) {
	var cliFlag *string
	if a.LockFlag != "" {
		cliFlag = &a.LockFlag
	}
	timeout, _, err := locking.ResolveTimeout(cliFlag, os.Getenv("KOPI_LOCK_TIMEOUT"), a.Config.LockTimeout())
	if err != nil {
		return locking.Options{}, kopierr.Wrap(kopierr.KindInvalidArgument, "parsing lock timeout", err)
	}
	observer := output.NewWaitObserver(a.Printer, os.Stdout, a.JSON)
	return locking.Options{Timeout: timeout, Observer: observer}, nil
}

// reportError renders err per spec.md §7: a three-part human message
// to stderr, or a single JSON object to stdout in --json mode, either
// way exiting with the Kind-mapped code.
func reportError(p *output.Printer, jsonOut bool, err error) int {
	kerr, ok := err.(*kopierr.Error)
	if !ok {
		kerr = kopierr.Wrap(kopierr.KindUnknown, err.Error(), nil)
	}
	ctx := kopierr.NewContext(kerr)
	if jsonOut {
		return p.ReportErrorJSON(ctx)
	}
	return p.ReportError(ctx)
}
