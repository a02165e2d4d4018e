package commands

import (
	"github.com/phrazzld/scry-lexicon/internal/app"
	"github.com/phrazzld/scry-lexicon/internal/store"
	"github.com/spf13/cobra"
)

func (c *cli) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|reset|status|version]",
		Short:     "Run cache schema migrations",
		Long:      `Run a migration command against the sqlite or postgres cache backend. The default command is up.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{store.MigrateUp, store.MigrateDown, store.MigrateReset, store.MigrateStatus, store.MigrateVersion},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := store.MigrateUp
			if len(args) == 1 {
				command = args[0]
			}

			cfg, log, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			return app.Migrate(cmd.Context(), cfg, command, log)
		},
	}
}
