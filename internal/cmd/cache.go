package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kopi-vm/kopi/internal/cache"
	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/output"
	"github.com/kopi-vm/kopi/internal/version"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or refresh kopi's metadata cache",
	}
	cmd.AddCommand(newCacheRefreshCmd(), newCacheSearchCmd(), newCacheListCmd())
	return cmd
}

func newCacheRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-fetch metadata from every configured source and save it atomically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Paths.EnsureDirs(); err != nil {
				return kopierr.Wrap(kopierr.KindIO, "preparing kopi home", err)
			}
			lockOpts, err := app.lockOptions()
			if err != nil {
				return err
			}
			app.Printer.Fetch("refreshing metadata cache...")
			fetched, err := app.Provider.FetchAll()
			if err != nil {
				return err
			}
			if err := cache.Save(app.Paths.CacheFile, fetched, app.Controller, lockOpts); err != nil {
				return err
			}
			count := 0
			for _, d := range fetched.Distributions {
				count += len(d.Packages)
			}
			app.Printer.Success("cache refreshed: %d distribution(s), %d package(s)", len(fetched.Distributions), count)
			return nil
		},
	}
}

func newCacheSearchCmd() *cobra.Command {
	var rangeConstraint string
	var dist string
	cmd := &cobra.Command{
		Use:   "search <version>",
		Short: "Search the cached metadata for packages matching a version request",
		Long: "Search the cached metadata for packages matching a version request.\n" +
			"By default <version> is a kopi version pattern (e.g. temurin@21). With\n" +
			"--range, <version> is ignored and packages are matched against a\n" +
			"semver-style constraint (e.g. --range '>=21,<22' --dist temurin).",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cache.Load(app.Paths.CacheFile)
			if err != nil {
				return err
			}

			var matches []cache.Package
			var label string
			if rangeConstraint != "" {
				var distFilter *version.Distribution
				if dist != "" {
					d := version.ParseDistribution(dist)
					distFilter = &d
				}
				matches, err = cache.SearchRange(c, rangeConstraint, distFilter)
				if err != nil {
					return err
				}
				label = rangeConstraint
			} else {
				if len(args) != 1 {
					return kopierr.New(kopierr.KindInvalidArgument, "search requires a <version> argument unless --range is given")
				}
				req, err := version.ParseRequest(args[0])
				if err != nil {
					return kopierr.Wrap(kopierr.KindInvalidArgument, "parsing version request", err)
				}
				matches, err = cache.Search(c, req, cache.SearchPrefix)
				if err != nil {
					return err
				}
				label = req.String()
			}

			if len(matches) == 0 {
				app.Printer.Info("no packages match %s. Try 'kopi cache refresh'.", label)
				return nil
			}
			rows := make([]output.Row, 0, len(matches))
			for _, pkg := range matches {
				rows = append(rows, output.Row{pkg.Distribution, pkg.Version, pkg.PackageType, pkg.OS + "/" + pkg.Arch})
			}
			app.Printer.RenderTable(output.Row{"Distribution", "Version", "Type", "Platform"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&rangeConstraint, "range", "", "semver-style constraint (e.g. \">=21,<22\") instead of a kopi version pattern")
	cmd.Flags().StringVar(&dist, "dist", "", "restrict --range search to one distribution")
	return cmd
}

func newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every distribution currently in the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cache.Load(app.Paths.CacheFile)
			if err != nil {
				return err
			}
			rows := make([]output.Row, 0, len(c.Distributions))
			for _, d := range c.Distributions {
				rows = append(rows, output.Row{d.Distribution, d.DisplayName, len(d.Packages)})
			}
			app.Printer.RenderTable(output.Row{"Distribution", "Display name", "Packages"}, rows)
			app.Printer.Info("last updated: %s", c.LastUpdated.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
}
