package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newExplainCommand() *cobra.Command {
	var rules string

	cmd := &cobra.Command{
		Use:   "explain TEXT...",
		Short: "Show which category a piece of text would land in",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(rules)
			if err != nil {
				return err
			}
			defer func() { _ = app.Logger.Sync() }()

			exp, err := app.Pipeline.Explain(strings.Join(args, " "))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "normalized: %s\n", exp.Normalized)
			if exp.Category == "" {
				fmt.Fprintf(w, "category:   %s (no pass matched)\n", app.Pipeline.RemainderLabel())
				return nil
			}
			fmt.Fprintf(w, "pass:       %s\n", exp.Pass)
			fmt.Fprintf(w, "category:   %s\n", exp.Category)
			fmt.Fprintf(w, "matched:    %s\n", exp.Predicate)
			return nil
		},
	}

	cmd.Flags().StringVar(&rules, "rules", "", "rules file (overrides rules.path)")

	return cmd
}
