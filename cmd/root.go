// Package cmd implements the prayerbook command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/config"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "prayerbook",
		Short: "Classify a prayer corpus into a categorised prayer book",
		Long: `prayerbook sorts a corpus of prayers into ordered thematic categories
using keyword and pattern rules, then writes the categorised tree as JSON
or renders it as a static HTML page.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.GetConfigPath(""),
		"config file (defaults plus environment when empty; CONFIG_PATH also sets it)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "prayerbook version %s\n", Version)
		},
	})

	rootCmd.AddCommand(
		newClassifyCommand(),
		newRenderCommand(),
		newStatsCommand(),
		newExplainCommand(),
		newRulesCommand(),
		newRunsCommand(),
		newServeCommand(),
	)
}

// loadDeps loads configuration and the logger from the persistent flags.
func loadDeps() (*bootstrap.Deps, error) {
	deps, err := bootstrap.NewDeps(cfgFile, debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return deps, nil
}

// loadApp loads dependencies and compiles the rules file.
func loadApp(rulesPath string) (*bootstrap.App, error) {
	deps, err := loadDeps()
	if err != nil {
		return nil, err
	}
	app, err := bootstrap.NewApp(deps, rulesPath)
	if err != nil {
		_ = deps.Logger.Sync()
		return nil, err
	}
	return app, nil
}
