// kopi shim manages the generated executables under <kopi_home>/shims
// that spec.md §4.6 calls the fast-path dispatcher: every name in
// shim.Registry gets a hardlink (or a copy, where linking fails) of the
// kopi-shim binary installed alongside kopi, so argv[0] alone tells the
// dispatcher which tool was invoked.
package cmd

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/locking"
	"github.com/kopi-vm/kopi/internal/shim"
)

func newShimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shim",
		Short: "Manage the kopi-shim executables on PATH",
	}
	cmd.AddCommand(newShimAddCmd(), newShimListCmd())
	return cmd
}

func newShimAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "(Re)install every registered tool's shim under <kopi_home>/shims",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lockOpts, err := app.lockOptions()
			if err != nil {
				return err
			}
			guard, err := app.Controller.Acquire(locking.Shims(), lockOpts)
			if err != nil {
				return err
			}
			defer guard.Release()

			if err := app.Paths.EnsureDirs(); err != nil {
				return kopierr.Wrap(kopierr.KindIO, "preparing kopi home", err)
			}
			self, err := exec.LookPath(os.Args[0])
			if err != nil {
				self, err = filepath.Abs(os.Args[0])
				if err != nil {
					return kopierr.Wrap(kopierr.KindIO, "locating the kopi-shim binary", err)
				}
			}
			self = filepath.Join(filepath.Dir(self), shimExeName("kopi-shim"))

			names := make([]string, 0, len(shim.Registry))
			for name := range shim.Registry {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				dest := filepath.Join(app.Paths.Shims, shimExeName(name))
				os.Remove(dest)
				if err := os.Link(self, dest); err != nil {
					if err := copyFile(self, dest); err != nil {
						return kopierr.Wrap(kopierr.KindIO, "installing shim for "+name, err)
					}
				}
			}
			app.Printer.Success("installed %d shim(s) in %s", len(names), app.Paths.Shims)
			return nil
		},
	}
}

func newShimListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tool names kopi-shim is willing to dispatch to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(shim.Registry))
			for name := range shim.Registry {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				app.Printer.Info(name)
			}
			return nil
		},
	}
}

func shimExeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o755)
}
