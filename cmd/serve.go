package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/api"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/database"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/logger"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/pipeline"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/watch"
)

func newServeCommand() *cobra.Command {
	var (
		rules   string
		port    int
		watched bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Classify the corpus and serve the result over HTTP",
		Long: `Classify the corpus at startup, then serve the page, the tree, the
category counts, an explain endpoint and Prometheus metrics until interrupted.
With --watch the rules file and corpus are reclassified whenever they change.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(rules)
			if err != nil {
				return err
			}
			defer func() { _ = app.Logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			history, closeDB, err := bootstrap.OpenHistory(ctx, app.Deps)
			if err != nil {
				return err
			}
			defer func() { _ = closeDB() }()

			result, err := classifyAndRecord(ctx, app, history)
			if err != nil {
				return err
			}
			renderer, err := app.Renderer()
			if err != nil {
				return err
			}

			var store api.HistoryStore
			if history != nil {
				store = history
			}
			handler := api.NewHandler(result, app.Pipeline, renderer, store, app.Logger)

			if watched {
				if err = startWatcher(ctx, app, history, handler); err != nil {
					return err
				}
			}

			serverCfg := app.Config.Server
			if port != 0 {
				serverCfg.Port = port
			}
			server := api.NewServer(handler, serverCfg, app.Config.Service.Debug, app.Telemetry, app.Logger)
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&rules, "rules", "", "rules file (overrides rules.path)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	cmd.Flags().BoolVarP(&watched, "watch", "w", false, "reclassify when the rules file or corpus changes")

	return cmd
}

func classifyAndRecord(ctx context.Context, app *bootstrap.App, history *database.HistoryRepository) (*pipeline.Result, error) {
	result, err := app.Classify(ctx, "")
	if err != nil {
		return nil, err
	}
	if history == nil {
		return result, nil
	}
	run, err := history.RecordRun(ctx, app.RulesName(), result.Tree, len(result.Remainder))
	if err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	app.Logger.Info("Run recorded", logger.String("run_id", run.ID))
	return result, nil
}

// startWatcher reclassifies on rules or corpus changes and swaps the served
// result. A failed reload keeps serving the previous result.
func startWatcher(ctx context.Context, app *bootstrap.App, history *database.HistoryRepository, handler *api.Handler) error {
	current := app
	reload := func(ctx context.Context) error {
		next, err := current.Reload()
		if err != nil {
			return err
		}
		result, err := classifyAndRecord(ctx, next, history)
		if err != nil {
			return err
		}
		renderer, err := next.Renderer()
		if err != nil {
			return err
		}
		handler.Update(result, next.Pipeline, renderer)
		current = next
		next.Logger.Info("Reclassified after change",
			logger.Int("prayers", result.Tree.Total()),
			logger.Int("uncategorized", len(result.Remainder)),
		)
		return nil
	}

	paths := []string{app.RulesPath, app.Config.Corpus.Path}
	w, err := watch.New(paths, app.Config.Server.WatchDebounce, reload, app.Logger)
	if err != nil {
		return err
	}
	app.Logger.Info("Watching for changes", logger.Strings("paths", paths))
	go func() { _ = w.Run(ctx) }()
	return nil
}
