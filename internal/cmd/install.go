package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kopi-vm/kopi/internal/install"
	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/progress"
	"github.com/kopi-vm/kopi/internal/version"
)

func newInstallCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "install <version>",
		Short: "Install a JDK (e.g. 'kopi install temurin@21')",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := version.ParseRequest(args[0])
			if err != nil {
				return kopierr.Wrap(kopierr.KindInvalidArgument, "parsing version request", err)
			}
			if err := app.Paths.EnsureDirs(); err != nil {
				return kopierr.Wrap(kopierr.KindIO, "preparing kopi home", err)
			}
			lockOpts, err := app.lockOptions()
			if err != nil {
				return err
			}

			sink := progress.Noop()
			if !app.JSON {
				sink = progress.TTY(os.Stdout)
			}
			opts := install.Options{Force: force, LockOptions: lockOpts, Progress: sink}

			installer := install.New(app.Paths, app.Provider, app.Controller)
			pkg, err := installer.Plan(req, opts)
			if err != nil {
				return err
			}
			app.Printer.Fetch("installing %s %s...", pkg.Distribution, pkg.Version)
			jdk, err := installer.Install(pkg, opts)
			if err != nil {
				return err
			}
			app.Printer.Success("installed %s@%s at %s", jdk.Distribution, jdk.Version, jdk.InstallPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing installation")
	return cmd
}
