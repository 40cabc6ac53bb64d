// Package logger provides the process-wide structured logger.
//
// Log lines go to a size-rotated file under Dir and, for the server or in
// debug mode, to stderr as well. The package-level helpers are no-ops until
// Init has been called, so libraries can log unconditionally.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file created inside Config.Dir.
const FileName = "keystone.log"

var (
	mu     sync.RWMutex
	logger *log.Logger
	rotate *lumberjack.Logger
)

// Config holds logger configuration.
type Config struct {
	// Level is debug, info, warn or error. Empty means info (debug when Debug is set).
	Level string
	// Dir receives the rotating log file. Empty disables file output.
	Dir string
	// Debug adds caller information and forces debug level.
	Debug bool
	// Console mirrors every line to stderr.
	Console bool
	// Prefix is printed before each message.
	Prefix string
}

// Init initializes the global logger with the given configuration.
func Init(cfg Config) error {
	level := log.InfoLevel
	if cfg.Level != "" {
		parsed, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	if cfg.Debug {
		level = log.DebugLevel
	}

	var writers []io.Writer
	var fileWriter *lumberjack.Logger
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		fileWriter = &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, FileName),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		writers = append(writers, fileWriter)
	}
	if cfg.Console || cfg.Debug || len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "keystone"
	}

	l := log.NewWithOptions(io.MultiWriter(writers...), log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          prefix,
	})

	mu.Lock()
	defer mu.Unlock()
	if rotate != nil {
		_ = rotate.Close()
	}
	logger, rotate = l, fileWriter
	return nil
}

// Close flushes and closes the log file, if any. Logging after Close is a no-op.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	logger = nil
	if rotate == nil {
		return nil
	}
	err := rotate.Close()
	rotate = nil
	return err
}

// Get returns the underlying logger, or nil before Init.
func Get() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs a debug message
func Debug(msg string, keyvals ...any) {
	if l := Get(); l != nil {
		l.Debug(msg, keyvals...)
	}
}

// Info logs an info message
func Info(msg string, keyvals ...any) {
	if l := Get(); l != nil {
		l.Info(msg, keyvals...)
	}
}

// Warn logs a warning message
func Warn(msg string, keyvals ...any) {
	if l := Get(); l != nil {
		l.Warn(msg, keyvals...)
	}
}

// Error logs an error message
func Error(msg string, keyvals ...any) {
	if l := Get(); l != nil {
		l.Error(msg, keyvals...)
	}
}
