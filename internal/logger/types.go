package logger

// Supported output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config represents the logger configuration.
type Config struct {
	// Level is the minimum logging level (debug, info, warn, error).
	Level string `env:"LOG_LEVEL" yaml:"level"`
	// Format is "json" or "console".
	Format string `env:"LOG_FORMAT" yaml:"format"`
	// Development disables sampling.
	Development bool `yaml:"development"`
	// OutputPaths is a list of URLs or file paths to write logging output to.
	OutputPaths []string `yaml:"output_paths"`
}

// Default configuration values.
const (
	DefaultLevel  = "info"
	DefaultFormat = FormatJSON
)

// DefaultOutputPaths keeps stdout free for command output such as the JSON tree.
var DefaultOutputPaths = []string{"stderr"}

// SetDefaults applies default values to the config if not set.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = DefaultLevel
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = DefaultOutputPaths
	}
}
