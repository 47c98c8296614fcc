package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kopi-vm/kopi/internal/output"
	"github.com/kopi-vm/kopi/internal/storage"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed JDKs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			installed, err := storage.EnumerateInstalled(app.Paths.Jdks)
			if err != nil {
				return err
			}
			if len(installed) == 0 {
				app.Printer.Info("no JDKs installed. Run 'kopi install <version>' to add one.")
				return nil
			}
			rows := make([]output.Row, 0, len(installed))
			for _, jdk := range installed {
				name := storage.DirName(jdk.Distribution, jdk.Version)
				binDir, err := jdk.ResolveBinPath(app.Paths.SidecarPath(name))
				path := jdk.InstallPath
				if err == nil {
					path = binDir
				}
				rows = append(rows, output.Row{jdk.Distribution.DisplayName(), jdk.Version.String(), path})
			}
			app.Printer.RenderTable(output.Row{"Distribution", "Version", "Bin path"}, rows)
			return nil
		},
	}
	return cmd
}
