// kopi init bootstraps a fresh KOPI_HOME: the directory layout of
// spec.md §6, a default config.toml, and the shim executables.
// Grounded in the teacher's cmd/init.go (create ~/.jenvy, write a
// default config if absent, install shell completions) — same shape,
// generalized to kopi's directory layout and the real shim install
// this package's shim.go implements instead of the teacher's
// PATH-registry edit.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kopi-vm/kopi/internal/kopierr"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Bootstrap KOPI_HOME: directory layout, default config, and shims",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Paths.EnsureDirs(); err != nil {
				return kopierr.Wrap(kopierr.KindIO, "creating kopi home layout", err)
			}
			if err := saveDefaultConfig(app.Paths.ConfigFile); err != nil {
				return err
			}
			app.Printer.Success("initialized %s", app.Paths.Root)
			app.Printer.Info("add %s to PATH, then run 'kopi shim add' to install tool shims.", app.Paths.Shims)
			return nil
		},
	}
}
