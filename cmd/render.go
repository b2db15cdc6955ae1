package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/corpus"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/logger"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/tree"
)

func newRenderCommand() *cobra.Command {
	var (
		rules    string
		treePath string
		out      string
		fresh    bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the categorised tree as a static HTML page",
		Long: `Render a tree previously written by classify, or classify the corpus
first with --classify, into a single HTML page with a category sidebar.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(rules)
			if err != nil {
				return err
			}
			defer func() { _ = app.Logger.Sync() }()

			var t *tree.Tree
			if fresh {
				result, classifyErr := app.Classify(cmd.Context(), "")
				if classifyErr != nil {
					return classifyErr
				}
				t = result.Tree
			} else {
				path := firstNonEmpty(treePath, app.Config.Output.TreePath)
				if t, err = corpus.ReadTree(path); err != nil {
					return err
				}
			}

			renderer, err := app.Renderer()
			if err != nil {
				return err
			}
			path := firstNonEmpty(out, app.Config.Output.HTMLPath)
			if err = renderer.WriteFile(path, t); err != nil {
				return err
			}
			app.Logger.Info("Page rendered",
				logger.String("path", path),
				logger.Int("prayers", t.Total()),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&rules, "rules", "", "rules file (overrides rules.path)")
	cmd.Flags().StringVar(&treePath, "tree", "", "tree JSON to render (overrides output.tree_path)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "HTML output path (overrides output.html_path)")
	cmd.Flags().BoolVar(&fresh, "classify", false, "classify the corpus instead of reading a tree file")

	return cmd
}
