package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/logger"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/report"
)

func newStatsCommand() *cobra.Command {
	var (
		rules    string
		passes   bool
		workbook string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Classify the corpus and print category counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(rules)
			if err != nil {
				return err
			}
			defer func() { _ = app.Logger.Sync() }()

			result, err := app.Classify(cmd.Context(), "")
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if passes {
				report.WritePasses(w, result.Passes)
				fmt.Fprintln(w)
			}
			report.WriteCounts(w, result.Tree)

			if workbook != "" {
				if err = report.WriteWorkbook(workbook, result.Tree, result.Passes); err != nil {
					return err
				}
				app.Logger.Info("Workbook written", logger.String("path", workbook))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rules, "rules", "", "rules file (overrides rules.path)")
	cmd.Flags().BoolVar(&passes, "passes", false, "also print the bucket sizes of every top-level pass")
	cmd.Flags().StringVar(&workbook, "xlsx", "", "also write a coverage workbook to this path")

	return cmd
}
