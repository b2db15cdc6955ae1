// Package config loads prayerbook configuration from YAML with environment
// variable overrides. .env files are read first: ENV_FILE when set, otherwise
// .env.local and then .env.
package config

import "time"

// Default configuration values.
const (
	defaultServiceName    = "prayerbook"
	defaultServiceVersion = "1.0.0"
	defaultRulesPath      = "rules/prayers.yml"
	defaultCorpusPath     = "prayers.json"
	defaultTreePath       = "prayers-categorised.json"
	defaultHTMLPath       = "site/index.html"
	defaultServerPort     = 8090
	defaultReadTimeout    = 30 * time.Second
	defaultWriteTimeout   = 60 * time.Second
	defaultExplainRPS     = 10
	defaultWatchDebounce  = 500 * time.Millisecond
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultSiteTitle      = "Prayers"
	defaultPreviewChars   = 200

	// DriverSQLite selects github.com/mattn/go-sqlite3.
	DriverSQLite = "sqlite3"
	// DriverPostgres selects github.com/lib/pq.
	DriverPostgres = "postgres"
)

// Config holds all configuration for prayerbook.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Logging  LoggingConfig  `yaml:"logging"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Rules    RulesConfig    `yaml:"rules"`
	Output   OutputConfig   `yaml:"output"`
	Render   RenderConfig   `yaml:"render"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Debug   bool   `env:"APP_DEBUG" yaml:"debug"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// CorpusConfig describes where prayers are read from.
type CorpusConfig struct {
	Path string `env:"PRAYERBOOK_CORPUS" yaml:"path"`
	// StrictAuthors rejects records whose author is outside the known set.
	StrictAuthors bool `env:"PRAYERBOOK_STRICT_AUTHORS" yaml:"strict_authors"`
}

// RulesConfig points at the rule set and pipeline definition.
type RulesConfig struct {
	Path string `env:"PRAYERBOOK_RULES" yaml:"path"`
}

// OutputConfig holds the paths classification results are written to.
type OutputConfig struct {
	TreePath    string `env:"PRAYERBOOK_TREE_OUT"    yaml:"tree_path"`
	HTMLPath    string `env:"PRAYERBOOK_HTML_OUT"    yaml:"html_path"`
	MetricsPath string `env:"PRAYERBOOK_METRICS_OUT" yaml:"metrics_path"`
}

// RenderConfig holds HTML rendering settings.
type RenderConfig struct {
	Title        string `yaml:"title"`
	PreviewChars int    `yaml:"preview_chars"`
	Stylesheet   string `yaml:"stylesheet"`
	Script       string `yaml:"script"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int           `env:"PRAYERBOOK_PORT" yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// ExplainRPS limits POST /api/v1/explain per second; negative disables it.
	ExplainRPS   int `env:"PRAYERBOOK_EXPLAIN_RPS" yaml:"explain_rps"`
	ExplainBurst int `yaml:"explain_burst"`
	// WatchDebounce delays a reload after the rules or corpus change.
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// DatabaseConfig holds run history storage configuration.
type DatabaseConfig struct {
	Enabled bool   `env:"PRAYERBOOK_DB_ENABLED" yaml:"enabled"`
	Driver  string `env:"PRAYERBOOK_DB_DRIVER"  yaml:"driver"`
	DSN     string `env:"PRAYERBOOK_DB_DSN"     yaml:"dsn"`
}

// Load loads configuration from the specified path. An empty path yields
// defaults plus environment overrides.
func Load(path string) (*Config, error) {
	return LoadFile[Config](path, setDefaults)
}

func setDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = defaultServiceName
	}
	if cfg.Service.Version == "" {
		cfg.Service.Version = defaultServiceVersion
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaultLogFormat
	}
	if cfg.Corpus.Path == "" {
		cfg.Corpus.Path = defaultCorpusPath
	}
	if cfg.Rules.Path == "" {
		cfg.Rules.Path = defaultRulesPath
	}
	if cfg.Output.TreePath == "" {
		cfg.Output.TreePath = defaultTreePath
	}
	if cfg.Output.HTMLPath == "" {
		cfg.Output.HTMLPath = defaultHTMLPath
	}
	setRenderDefaults(&cfg.Render)
	setServerDefaults(&cfg.Server)
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
}

func setRenderDefaults(r *RenderConfig) {
	if r.Title == "" {
		r.Title = defaultSiteTitle
	}
	if r.PreviewChars == 0 {
		r.PreviewChars = defaultPreviewChars
	}
	if r.Stylesheet == "" {
		r.Stylesheet = "styles.css"
	}
	if r.Script == "" {
		r.Script = "main.js"
	}
}

func setServerDefaults(s *ServerConfig) {
	if s.Port == 0 {
		s.Port = defaultServerPort
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = defaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = defaultWriteTimeout
	}
	if s.ExplainRPS == 0 {
		s.ExplainRPS = defaultExplainRPS
	}
	if s.ExplainBurst == 0 {
		s.ExplainBurst = s.ExplainRPS
	}
	if s.WatchDebounce == 0 {
		s.WatchDebounce = defaultWatchDebounce
	}
}
