package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/database"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/report"
)

const defaultRunsLimit = 20

var errHistoryDisabled = errors.New("run history is disabled; set database.enabled")

func newRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded classification runs",
	}
	cmd.AddCommand(newRunsListCommand(), newRunsDiffCommand())
	return cmd
}

// withHistory opens run history for the duration of fn.
func withHistory(cmd *cobra.Command, fn func(*database.HistoryRepository) error) error {
	deps, err := loadDeps()
	if err != nil {
		return err
	}
	defer func() { _ = deps.Logger.Sync() }()

	history, closeDB, err := bootstrap.OpenHistory(cmd.Context(), deps)
	if err != nil {
		return err
	}
	defer func() { _ = closeDB() }()
	if history == nil {
		return errHistoryDisabled
	}
	return fn(history)
}

func newRunsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHistory(cmd, func(history *database.HistoryRepository) error {
				runs, err := history.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				report.WriteRuns(cmd.OutOrStdout(), runs)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultRunsLimit, "maximum number of runs to list")

	return cmd
}

func newRunsDiffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff FROM_RUN TO_RUN",
		Short: "List prayers whose category changed between two runs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, func(history *database.HistoryRepository) error {
				changes, err := history.Diff(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				report.WriteChanges(cmd.OutOrStdout(), changes)
				return nil
			})
		},
	}
}
