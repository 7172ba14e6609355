package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog logger
type Logger struct {
	logger zerolog.Logger
}

// Config contains logger configuration
type Config struct {
	Level      string
	Format     string // json or console
	OutputPath string // stdout, stderr or a file path
}

// New creates a new logger instance
func New(cfg Config) *Logger {
	output := openOutput(cfg.OutputPath)

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()

	return &Logger{logger: logger}
}

// NewFromWriter creates a JSON logger writing to w, used by tests that assert on log output
func NewFromWriter(w io.Writer, level string) *Logger {
	zerolog.SetGlobalLevel(parseLevel(level))
	return &Logger{logger: zerolog.New(w).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

func openOutput(path string) io.Writer {
	switch path {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return os.Stdout
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return os.Stdout
	}
	return f
}

// parseLevel converts string to zerolog level
func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.logger.Warn().Msgf(format, v...)
}

// ErrorWithErr logs an error with error object
func (l *Logger) ErrorWithErr(err error, msg string) {
	l.logger.Error().Err(err).Msg(msg)
}

// WarnWithErr logs a warning with error object
func (l *Logger) WarnWithErr(err error, msg string) {
	l.logger.Warn().Err(err).Msg(msg)
}

// With returns a logger with additional fields
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// WithComponent tags every entry with the emitting component
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{logger: l.logger.With().Str("component", name).Logger()}
}

// WithFields returns a logger with multiple fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{logger: ctx.Logger()}
}

// Init builds the process logger and routes zerolog's package-level logger through it
func Init(cfg Config) *Logger {
	l := New(cfg)
	log.Logger = l.logger
	return l
}
