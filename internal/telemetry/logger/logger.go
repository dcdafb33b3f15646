package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
)

// Logger is the application logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (trace, debug, info, warn, error, off).
	Level string
	// Format is the output format (text, json).
	Format string
	// Output is the output writer (defaults to os.Stderr).
	Output io.Writer
	// Name is prefixed to every text line.
	Name string
}

// DefaultConfig returns a default logger configuration. A CLI stays quiet
// unless something goes wrong.
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		Format: "text",
		Output: os.Stderr,
		Name:   "sdncli",
	}
}

type hcLogger struct {
	logger hclog.Logger
	ctx    context.Context
}

// globalLevel holds the level of the most recently built logger.
var globalLevel atomic.Int32

// New creates a new logger with the given configuration.
func New(cfg Config) (Logger, error) {
	level := parseLevel(cfg.Level)
	globalLevel.Store(int32(level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	format := strings.ToLower(cfg.Format)
	l := hclog.New(&hclog.LoggerOptions{
		Name:            cfg.Name,
		Level:           level,
		Output:          output,
		JSONFormat:      format == "json",
		Color:           hclog.ColorOff,
		IncludeLocation: level <= hclog.Trace,
	})

	return &hcLogger{
		logger: l,
		ctx:    context.Background(),
	}, nil
}

// Level returns the level of the most recently built logger.
func Level() string {
	return hclog.Level(globalLevel.Load()).String()
}

func (l *hcLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, redactArgs(args)...)
}

func (l *hcLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, redactArgs(args)...)
}

func (l *hcLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, redactArgs(args)...)
}

func (l *hcLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, redactArgs(args)...)
}

func (l *hcLogger) With(args ...any) Logger {
	return &hcLogger{
		logger: l.logger.With(redactArgs(args)...),
		ctx:    l.ctx,
	}
}

func (l *hcLogger) WithContext(ctx context.Context) Logger {
	return &hcLogger{
		logger: l.logger,
		ctx:    ctx,
	}
}

// parseLevel converts a string level to an hclog level, defaulting to warn.
func parseLevel(level string) hclog.Level {
	switch strings.ToLower(level) {
	case "warning":
		return hclog.Warn
	case "":
		return hclog.Warn
	}
	if l := hclog.LevelFromString(level); l != hclog.NoLevel {
		return l
	}
	return hclog.Warn
}

var defaultLogger atomic.Pointer[hcLogger]

func init() {
	l, _ := New(DefaultConfig())
	defaultLogger.Store(l.(*hcLogger))
}

// SetDefault sets the default global logger.
func SetDefault(l Logger) {
	if hl, ok := l.(*hcLogger); ok {
		defaultLogger.Store(hl)
	}
}

// Default returns the default global logger.
func Default() Logger {
	return defaultLogger.Load()
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() Logger {
	return &hcLogger{logger: hclog.NewNullLogger(), ctx: context.Background()}
}

// Debug logs at debug level using the default logger.
func Debug(msg string, args ...any) {
	defaultLogger.Load().Debug(msg, args...)
}

// Info logs at info level using the default logger.
func Info(msg string, args ...any) {
	defaultLogger.Load().Info(msg, args...)
}

// Warn logs at warn level using the default logger.
func Warn(msg string, args ...any) {
	defaultLogger.Load().Warn(msg, args...)
}

// Error logs at error level using the default logger.
func Error(msg string, args ...any) {
	defaultLogger.Load().Error(msg, args...)
}
