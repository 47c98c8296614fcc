// This file implements `kopi use` and `kopi global`: the two ways
// spec.md §4.1/§6 lets a user pin a version (project-local
// .kopi-version file, and the <kopi_home>/version global default).
// Grounded in the teacher's cmd/use.go, which pins a JDK by writing
// JAVA_HOME into the Windows registry; generalized here into writing
// the plain version-request files the resolver reads, since kopi picks
// up the active version per-invocation via the shim rather than by
// mutating environment/registry state.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/resolver"
	"github.com/kopi-vm/kopi/internal/storage"
	"github.com/kopi-vm/kopi/internal/version"
)

func newUseCmd() *cobra.Command {
	var javaVersionFile bool
	cmd := &cobra.Command{
		Use:   "use [version]",
		Short: "Pin a JDK version for the current project (writes .kopi-version), or show the active one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return showActive()
			}
			req, err := version.ParseRequest(args[0])
			if err != nil {
				return kopierr.Wrap(kopierr.KindInvalidArgument, "parsing version request", err)
			}
			cwd, err := os.Getwd()
			if err != nil {
				return kopierr.Wrap(kopierr.KindIO, "reading current directory", err)
			}
			name := ".kopi-version"
			content := req.String()
			if javaVersionFile {
				name = ".java-version"
				content = req.Pattern.String()
			}
			if err := os.WriteFile(name, []byte(content+"\n"), 0o644); err != nil {
				return kopierr.Wrap(kopierr.KindIO, "writing "+name, err)
			}
			app.Printer.Success("wrote %s/%s: %s", cwd, name, content)
			return nil
		},
	}
	cmd.Flags().BoolVar(&javaVersionFile, "java-version-file", false, "write .java-version (bare version, no distribution) instead of .kopi-version")
	return cmd
}

func newGlobalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "global [version]",
		Short: "Set or show the global default JDK version",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				data, err := os.ReadFile(app.Paths.VersionFile)
				if err != nil {
					if os.IsNotExist(err) {
						app.Printer.Info("no global default set. Run 'kopi global <version>' to set one.")
						return nil
					}
					return kopierr.Wrap(kopierr.KindIO, "reading global default", err)
				}
				app.Printer.Info("global default: %s", string(data))
				return nil
			}
			req, err := version.ParseRequest(args[0])
			if err != nil {
				return kopierr.Wrap(kopierr.KindInvalidArgument, "parsing version request", err)
			}
			if err := app.Paths.EnsureDirs(); err != nil {
				return kopierr.Wrap(kopierr.KindIO, "preparing kopi home", err)
			}
			if err := os.WriteFile(app.Paths.VersionFile, []byte(req.String()+"\n"), 0o644); err != nil {
				return kopierr.Wrap(kopierr.KindIO, "writing global default", err)
			}
			app.Printer.Success("global default set to %s", req.String())
			return nil
		},
	}
	return cmd
}

// showActive reports what the resolver would currently pick and why,
// spec.md §4.1's diagnostic contract ("report the source").
func showActive() error {
	cwd, err := os.Getwd()
	if err != nil {
		return kopierr.Wrap(kopierr.KindIO, "reading current directory", err)
	}
	res, err := resolver.Resolve(cwd, app.Paths)
	if err != nil {
		return err
	}
	matches, err := storage.FindMatchingJdks(app.Paths.Jdks, res.Request)
	if err != nil {
		return err
	}
	status := "not installed"
	if jdk, ok := storage.HighestVersion(matches); ok {
		status = "installed at " + jdk.InstallPath
	}
	if res.Path != "" {
		app.Printer.Info("%s (from %s, %s) — %s", res.Request.String(), res.Source.String(), res.Path, status)
	} else {
		app.Printer.Info("%s (from %s) — %s", res.Request.String(), res.Source.String(), status)
	}
	return nil
}
