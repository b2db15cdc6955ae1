package logger

// NoOpLogger is a logger that does nothing.
// Use this for testing or when logging should be disabled.
type NoOpLogger struct{}

// NewNop creates a new no-op logger instance.
func NewNop() Logger {
	return &NoOpLogger{}
}

// Debug does nothing.
func (l *NoOpLogger) Debug(string, ...Field) {}

// Info does nothing.
func (l *NoOpLogger) Info(string, ...Field) {}

// Warn does nothing.
func (l *NoOpLogger) Warn(string, ...Field) {}

// Error does nothing.
func (l *NoOpLogger) Error(string, ...Field) {}

// With returns the same no-op logger.
func (l *NoOpLogger) With(...Field) Logger {
	return l
}

// Sync does nothing and returns nil.
func (l *NoOpLogger) Sync() error {
	return nil
}
