package commands

import (
	"context"
	"fmt"

	"github.com/phrazzld/scry-lexicon/internal/app"
	"github.com/spf13/cobra"
)

func (c *cli) newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the result cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Remove expired cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				removed, err := a.Sweep(ctx)
				if err != nil {
					return err
				}
				if c.outputFormat == formatJSON {
					return writeJSON(cmd.OutOrStdout(), map[string]int{"removed": removed})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries.\n", removed)
				return nil
			})
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Print the number of cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				count, err := a.Cache.Count(ctx)
				if err != nil {
					return fmt.Errorf("failed to count cache entries: %w", err)
				}
				if c.outputFormat == formatJSON {
					return writeJSON(cmd.OutOrStdout(), map[string]int{
						"count":       count,
						"max_entries": a.Cache.MaxEntries(),
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d entries\n", count, a.Cache.MaxEntries())
				return nil
			})
		},
	})

	return cacheCmd
}
