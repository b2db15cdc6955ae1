package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/corpus"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/logger"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/pipeline"
)

// stdoutPath selects standard output for --out.
const stdoutPath = "-"

type classifyOptions struct {
	rules   string
	corpus  string
	out     string
	html    string
	metrics string
}

func newClassifyCommand() *cobra.Command {
	opts := &classifyOptions{}
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify the corpus and write the categorised tree as JSON",
		Long: `Run every classification pass over the corpus, split and rearrange the
categories as the rules file describes, and write the resulting tree.
Use --out - to print the tree to standard output.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts.rules)
			if err != nil {
				return err
			}
			defer func() { _ = app.Logger.Sync() }()

			result, err := app.Classify(cmd.Context(), opts.corpus)
			if err != nil {
				return err
			}
			return writeOutputs(cmd, app, result, opts)
		},
	}

	cmd.Flags().StringVar(&opts.rules, "rules", "", "rules file (overrides rules.path)")
	cmd.Flags().StringVar(&opts.corpus, "corpus", "", "corpus JSON file (overrides corpus.path)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "tree output path, - for stdout (overrides output.tree_path)")
	cmd.Flags().StringVar(&opts.html, "html", "", "also render the HTML page to this path")
	cmd.Flags().StringVar(&opts.metrics, "metrics", "", "write run metrics in textfile format (overrides output.metrics_path)")

	return cmd
}

func writeOutputs(cmd *cobra.Command, app *bootstrap.App, result *pipeline.Result, opts *classifyOptions) error {
	out := firstNonEmpty(opts.out, app.Config.Output.TreePath)
	if out == stdoutPath {
		if err := corpus.EncodeTree(cmd.OutOrStdout(), result.Tree); err != nil {
			return err
		}
	} else {
		if err := corpus.WriteTree(out, result.Tree); err != nil {
			return err
		}
		app.Logger.Info("Tree written", logger.String("path", out))
	}

	if opts.html != "" {
		renderer, err := app.Renderer()
		if err != nil {
			return err
		}
		if err = renderer.WriteFile(opts.html, result.Tree); err != nil {
			return err
		}
		app.Logger.Info("Page rendered", logger.String("path", opts.html))
	}

	if metrics := firstNonEmpty(opts.metrics, app.Config.Output.MetricsPath); metrics != "" {
		if err := app.Telemetry.WriteTextfile(metrics); err != nil {
			return err
		}
	}

	return recordRun(cmd, app, result)
}

// recordRun stores the run in history when the database is enabled.
func recordRun(cmd *cobra.Command, app *bootstrap.App, result *pipeline.Result) error {
	history, closeDB, err := bootstrap.OpenHistory(cmd.Context(), app.Deps)
	if err != nil {
		return err
	}
	defer func() { _ = closeDB() }()
	if history == nil {
		return nil
	}

	run, err := history.RecordRun(cmd.Context(), app.RulesName(), result.Tree, len(result.Remainder))
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	app.Logger.Info("Run recorded", logger.String("run_id", run.ID))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
