package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/storage"
	"github.com/kopi-vm/kopi/internal/uninstall"
	"github.com/kopi-vm/kopi/internal/version"
)

func newUninstallCmd() *cobra.Command {
	var all, force, cleanOrphans bool
	cmd := &cobra.Command{
		Use:     "uninstall <version>",
		Aliases: []string{"remove"},
		Short:   "Remove an installed JDK",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := version.ParseRequest(args[0])
			if err != nil {
				return kopierr.Wrap(kopierr.KindInvalidArgument, "parsing version request", err)
			}
			lockOpts, err := app.lockOptions()
			if err != nil {
				return err
			}

			u := uninstall.New(app.Paths, app.Controller)
			opts := uninstall.Options{
				All: all, Force: force, LockOptions: lockOpts,
				Notify: func(message string) { app.Printer.Info("%s", message) },
			}

			targets, err := u.Resolve(req, opts)
			if err != nil {
				return err
			}
			if err := u.Uninstall(targets, opts); err != nil {
				return err
			}
			for _, jdk := range targets {
				app.Printer.Success("removed %s", storage.DirName(jdk.Distribution, jdk.Version))
			}

			if cleanOrphans {
				orphans, err := uninstall.SweepOrphans(app.Paths.Jdks)
				if err != nil {
					return err
				}
				if len(orphans) > 0 {
					if err := uninstall.RemoveOrphans(orphans); err != nil {
						return err
					}
					app.Printer.Info("cleaned %d orphaned sidecar(s)", len(orphans))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "remove every matching installation instead of requiring a unique match")
	cmd.Flags().BoolVar(&force, "force", false, "skip the active-version confirmation prompt")
	cmd.Flags().BoolVar(&cleanOrphans, "clean-orphans", true, "sweep orphaned sidecar metadata after removal (spec.md §4.7 step 8)")
	return cmd
}
