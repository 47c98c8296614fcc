// kopi config shows and resets config.toml. Grounded in the teacher's
// cmd/show_config.go and cmd/reset_config.go (read/print a JSON config
// file, or delete it to fall back to defaults); generalized from the
// teacher's two-field private-repo config to spec.md §6's full
// config.toml schema, and from JSON to TOML.
package cmd

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/kopi-vm/kopi/internal/config"
	"github.com/kopi-vm/kopi/internal/kopierr"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or reset kopi's config.toml",
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigResetCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (defaults merged with config.toml)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := toml.Marshal(app.Config)
			if err != nil {
				return kopierr.Wrap(kopierr.KindIO, "encoding config", err)
			}
			app.Printer.Section("config.toml (" + app.Paths.ConfigFile + ")")
			_, _ = app.Printer.Out.Write(data)
			return nil
		},
	}
}

func newConfigResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete config.toml, reverting to built-in defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.Remove(app.Paths.ConfigFile); err != nil {
				if os.IsNotExist(err) {
					app.Printer.Info("no config.toml to remove; already at defaults")
					return nil
				}
				return kopierr.Wrap(kopierr.KindIO, "removing config.toml", err)
			}
			app.Printer.Success("config.toml removed; kopi will use built-in defaults")
			return nil
		},
	}
}

// saveDefaultConfig writes config.Default() to path if no file exists
// yet, used by `kopi init`.
func saveDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return config.Save(path, config.Default())
}
