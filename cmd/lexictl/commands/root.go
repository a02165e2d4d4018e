// Package commands implements the lexictl subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-lexicon/internal/app"
	"github.com/phrazzld/scry-lexicon/internal/config"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/spf13/cobra"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
)

// cli holds the global flags and the options used to build the application.
type cli struct {
	configPath   string
	outputFormat string
	appOptions   []app.Option
}

// NewRootCommand builds the lexictl command tree. The options are passed to
// app.New by every command that needs the enrichment pipeline.
func NewRootCommand(opts ...app.Option) *cobra.Command {
	c := &cli{appOptions: opts}

	rootCmd := &cobra.Command{
		Use:   "lexictl",
		Short: "Vocabulary enrichment command line",
		Long: `lexictl translates words, generates example sentences in bulk and
maintains the result cache used by the lexicon server.

Configuration is read from config.yaml in the working directory (or --config)
and LEXICON_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if c.outputFormat != formatText && c.outputFormat != formatJSON {
				return fmt.Errorf("unknown output format %q (expected text or json)", c.outputFormat)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "",
		"Path to a config file (default: ./config.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&c.outputFormat, "format", formatText,
		"Output format: text, json")

	rootCmd.AddCommand(
		c.newTranslateCmd(),
		c.newEnrichCmd(),
		c.newCacheCmd(),
		c.newMigrateCmd(),
		c.newTokenCmd(),
	)
	return rootCmd
}

// loadConfig reads the configuration and sets up a logger writing to the
// command's stderr.
func (c *cli) loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(c.configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.SetupWithWriter(cfg.Server, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return cfg, log, nil
}

// withApp builds the application, runs fn and closes the application.
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, log, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, log, c.appOptions...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			log.Warn("failed to close application", "error", cerr)
		}
	}()

	return fn(ctx, a)
}
