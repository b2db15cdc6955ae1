package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/bootstrap"
)

func newRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect rules files",
	}
	cmd.AddCommand(newRulesValidateCommand())
	return cmd
}

func newRulesValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [PATH]",
		Short: "Check that a rules file parses and every pattern compiles",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := loadDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			app, err := bootstrap.NewApp(deps, path)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d passes, %d splits)\n",
				app.RulesName(), len(app.Plan.Passes), len(app.Plan.Splits))
			return nil
		},
	}
}
