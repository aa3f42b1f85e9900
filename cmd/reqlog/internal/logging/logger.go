// Package logging provides structured logging with zerolog.
// It supports console, JSON and simple text formats, log levels, file output,
// request ID tracking, automatic redaction of sensitive fields, and the
// request lifecycle middleware that writes request, response and error entries.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/thalib/reqlog/cmd/reqlog/internal/constants"
	"github.com/thalib/reqlog/cmd/reqlog/internal/sanitize"
)

// ConsoleTimeFormat is the timestamp layout of the console format.
const ConsoleTimeFormat = "15:04:05 Z07:00"

// simpleWriter formats JSON entries as: [LEVEL](TIMESTAMP): {MESSAGE}
type simpleWriter struct {
	out io.Writer
}

func (sw *simpleWriter) Write(p []byte) (n int, err error) {
	var entry map[string]any
	if err := json.Unmarshal(p, &entry); err != nil {
		// Not JSON, write as-is
		return sw.out.Write(p)
	}

	level, _ := entry[zerolog.LevelFieldName].(string)
	timestamp, _ := entry[zerolog.TimestampFieldName].(string)
	message, _ := entry[zerolog.MessageFieldName].(string)

	formatted := fmt.Sprintf("[%s](%s): %s\n", strings.ToUpper(level), timestamp, message)
	if _, err := sw.out.Write([]byte(formatted)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Level represents logging levels
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ParseLevel maps a level name to a Level. Unknown names yield LevelInfo.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn:
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level Level

	// Format is the output format: console, json or simple
	Format string

	// Output is the writer for logs (default: os.Stdout)
	Output io.Writer

	// FilePath is the path to the log file. Entries go to the file in simple
	// format in addition to Output.
	FilePath string

	// ServiceName is the name of the service
	ServiceName string

	// Version is the version of the service
	Version string

	// Sanitizer masks fields added with WithField/WithFields.
	// Defaults to sanitize.Default().
	Sanitizer *sanitize.Sanitizer
}

// Logger wraps zerolog for structured logging
type Logger struct {
	logger    zerolog.Logger
	config    LoggerConfig
	sanitizer *sanitize.Sanitizer
	file      *os.File
}

// NewLogger creates a new structured logger. A log file that cannot be opened
// is reported on stderr and logging continues on Output only.
func NewLogger(config LoggerConfig) *Logger {
	if config.Level == "" {
		config.Level = LevelInfo
	}
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Sanitizer == nil {
		config.Sanitizer = sanitize.Default()
	}

	var primary io.Writer
	switch config.Format {
	case "json":
		primary = config.Output
	case "simple":
		primary = &simpleWriter{out: config.Output}
	default:
		primary = zerolog.ConsoleWriter{Out: config.Output, TimeFormat: ConsoleTimeFormat}
	}

	output := primary
	var file *os.File
	if config.FilePath != "" {
		f, err := openLogFile(config.FilePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", config.FilePath, err)
		} else {
			file = f
			output = zerolog.MultiLevelWriter(primary, &simpleWriter{out: f})
		}
	}

	ctx := zerolog.New(output).Level(config.Level.zerolog()).With().Timestamp()
	if config.ServiceName != "" {
		ctx = ctx.Str("service", config.ServiceName)
	}
	if config.Version != "" {
		ctx = ctx.Str("version", config.Version)
	}

	return &Logger{
		logger:    ctx.Logger(),
		config:    config,
		sanitizer: config.Sanitizer,
		file:      file,
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, constants.FilePermissions)
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Level returns the configured minimum level.
func (l *Logger) Level() Level {
	return l.config.Level
}

// WithContext returns a logger with context fields
func (l *Logger) WithContext(ctx context.Context) *Logger {
	newLogger := *l

	if requestID := GetRequestID(ctx); requestID != "" {
		newLogger.logger = l.logger.With().Str(constants.ContextKeyRequestID, requestID).Logger()
	}

	return &newLogger
}

// WithField returns a logger with an additional field
func (l *Logger) WithField(key string, value any) *Logger {
	newLogger := *l
	newLogger.logger = l.logger.With().Interface(key, l.mask(key, value)).Logger()
	return &newLogger
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	newLogger := *l
	ctx := l.logger.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, l.mask(key, value))
	}
	newLogger.logger = ctx.Logger()
	return &newLogger
}

// mask redacts the value of a sensitive key and sanitizes composite values.
func (l *Logger) mask(key string, value any) any {
	if l.sanitizer.IsSensitive(key) {
		return l.sanitizer.Marker()
	}
	return l.sanitizer.Data(value)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...any) {
	l.logger.Debug().Msgf(format, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...any) {
	l.logger.Info().Msgf(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...any) {
	l.logger.Warn().Msgf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string) {
	l.logger.Error().Msg(msg)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...any) {
	l.logger.Error().Msgf(format, args...)
}

// ErrorWithErr logs an error with the error object
func (l *Logger) ErrorWithErr(msg string, err error) {
	l.logger.Error().Err(err).Msg(msg)
}

// Writer returns an io.Writer that logs each write as an entry at level.
// It is handed to components that only accept a writer.
func (l *Logger) Writer(level Level) io.Writer {
	return &levelWriter{logger: l.logger, level: level.zerolog()}
}

// StdLogger adapts the logger for http.Server.ErrorLog.
func (l *Logger) StdLogger(level Level) *log.Logger {
	return log.New(l.Writer(level), "", 0)
}

type levelWriter struct {
	logger zerolog.Logger
	level  zerolog.Level
}

func (w *levelWriter) Write(p []byte) (int, error) {
	w.logger.WithLevel(w.level).Msg(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

type contextKey string

const requestIDKey contextKey = constants.ContextKeyRequestID

// SetRequestID sets the request ID in the context
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID gets the request ID from the context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

var globalLogger atomic.Pointer[Logger]

// Init initializes the global logger
func Init(config LoggerConfig) *Logger {
	logger := NewLogger(config)
	globalLogger.Store(logger)
	return logger
}

// GetLogger returns the global logger, creating a JSON info logger on first
// use if Init has not been called. Safe for concurrent use.
func GetLogger() *Logger {
	if logger := globalLogger.Load(); logger != nil {
		return logger
	}
	logger := NewLogger(LoggerConfig{
		Level:  LevelInfo,
		Format: "json",
	})
	if globalLogger.CompareAndSwap(nil, logger) {
		return logger
	}
	return globalLogger.Load()
}

// Info logs an info message using the global logger
func Info(msg string) {
	GetLogger().Info(msg)
}

// Infof logs a formatted info message using the global logger
func Infof(format string, args ...any) {
	GetLogger().Infof(format, args...)
}

// ErrorWithErr logs an error with the error object using the global logger
func ErrorWithErr(msg string, err error) {
	GetLogger().ErrorWithErr(msg, err)
}
