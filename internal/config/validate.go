package config

import "fmt"

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{Field: field, Message: "must be between 1 and 65535"}
	}
	return nil
}

func validateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error"}
	}
}

func validateLogFormat(format string) error {
	switch format {
	case "json", "console":
		return nil
	default:
		return &ValidationError{Field: "logging.format", Message: "must be one of: json, console"}
	}
}

// Validate checks the configuration for values the commands cannot work with.
func (c *Config) Validate() error {
	if err := validateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if err := validateLogFormat(c.Logging.Format); err != nil {
		return err
	}
	if err := validatePort("server.port", c.Server.Port); err != nil {
		return err
	}
	if c.Rules.Path == "" {
		return &ValidationError{Field: "rules.path", Message: "is required"}
	}
	if c.Database.Enabled {
		switch c.Database.Driver {
		case DriverSQLite, DriverPostgres:
		default:
			return &ValidationError{Field: "database.driver", Message: "must be one of: sqlite3, postgres"}
		}
		if c.Database.DSN == "" {
			return &ValidationError{Field: "database.dsn", Message: "is required when the database is enabled"}
		}
	}
	return nil
}
