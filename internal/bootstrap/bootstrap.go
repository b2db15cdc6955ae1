// Package bootstrap wires configuration, logging, rules and storage into the
// components the commands run.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/config"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/corpus"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/database"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/logger"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/pipeline"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/render"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/rules"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/telemetry"
)

// Deps holds the dependencies every command needs.
type Deps struct {
	Config *config.Config
	Logger logger.Logger
}

// NewDeps loads configuration from path and builds the logger. debug forces
// debug-level logging.
func NewDeps(path string, debug bool) (*Deps, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if debug {
		cfg.Service.Debug = true
		cfg.Logging.Level = "debug"
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &Deps{
		Config: cfg,
		Logger: log.With(logger.String("service", cfg.Service.Name)),
	}, nil
}

// App is a compiled rules file ready to classify the configured corpus.
type App struct {
	*Deps
	Rules     *rules.File
	RulesPath string
	Plan      pipeline.Plan
	Pipeline  *pipeline.Pipeline
	Telemetry *telemetry.Provider
}

// NewApp loads the rules file and compiles the pipeline. rulesPath overrides
// the configured path when non-empty.
func NewApp(deps *Deps, rulesPath string) (*App, error) {
	if rulesPath == "" {
		rulesPath = deps.Config.Rules.Path
	}
	return newApp(deps, rulesPath, telemetry.NewProvider())
}

// Reload re-reads the rules file into a new App sharing the same telemetry
// provider. The receiver is left unchanged.
func (a *App) Reload() (*App, error) {
	return newApp(a.Deps, a.RulesPath, a.Telemetry)
}

func newApp(deps *Deps, rulesPath string, tp *telemetry.Provider) (*App, error) {
	file, err := rules.Load(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	plan := file.Plan()
	p, err := pipeline.New(plan, deps.Logger, pipeline.WithTelemetry(tp))
	if err != nil {
		return nil, fmt.Errorf("compile rules %q: %w", rulesPath, err)
	}

	deps.Logger.Debug("Rules compiled",
		logger.String("path", rulesPath),
		logger.String("name", file.Name),
		logger.Int("passes", len(plan.Passes)),
		logger.Int("splits", len(plan.Splits)),
	)

	return &App{
		Deps:      deps,
		Rules:     file,
		RulesPath: rulesPath,
		Plan:      plan,
		Pipeline:  p,
		Telemetry: tp,
	}, nil
}

// Classify loads the corpus at path, or the configured corpus when path is
// empty, and runs the pipeline over it.
func (a *App) Classify(ctx context.Context, path string) (*pipeline.Result, error) {
	if path == "" {
		path = a.Config.Corpus.Path
	}

	prayers, err := corpus.Load(path, corpus.Options{StrictAuthors: a.Config.Corpus.StrictAuthors})
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	a.Logger.Info("Corpus loaded",
		logger.String("path", path),
		logger.Int("prayers", len(prayers)),
	)

	return a.Pipeline.Run(ctx, prayers)
}

// Renderer builds an HTML renderer from the render config and the author
// order of the rules file.
func (a *App) Renderer() (*render.Renderer, error) {
	return render.New(render.Options{
		Title:        a.Config.Render.Title,
		Stylesheet:   a.Config.Render.Stylesheet,
		Script:       a.Config.Render.Script,
		PreviewChars: a.Config.Render.PreviewChars,
		AuthorOrder:  a.Plan.AuthorOrder,
	})
}

// RulesName identifies the rules file in run history.
func (a *App) RulesName() string {
	if a.Rules.Name != "" {
		return a.Rules.Name
	}
	return a.Config.Rules.Path
}

// OpenHistory connects to the run history database and migrates it. It
// returns a nil repository and a no-op close when history is disabled.
func OpenHistory(ctx context.Context, deps *Deps) (*database.HistoryRepository, func() error, error) {
	noop := func() error { return nil }
	dbCfg := deps.Config.Database
	if !dbCfg.Enabled {
		return nil, noop, nil
	}

	db, err := database.Open(ctx, dbCfg.Driver, dbCfg.DSN)
	if err != nil {
		return nil, noop, err
	}
	if err = database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, noop, err
	}

	deps.Logger.Info("Run history enabled", logger.String("driver", dbCfg.Driver))
	return database.NewHistoryRepository(db), closer(db), nil
}

func closer(db *sqlx.DB) func() error {
	return func() error {
		if err := db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
		return nil
	}
}
