// package shared defines shared helpers
package shared

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// NewFileLogger creates a [log.Logger] that writes only to a rotating log file at path.
//
// The returned closer releases the underlying file and must be closed by the caller.
func NewFileLogger(path string) (*log.Logger, io.Closer, error) {
	w, err := rotatingWriter(LogConfig{File: path})
	if err != nil {
		return nil, nil, err
	}
	return NewLogger(w), w, nil
}

// NewConfiguredLogger builds a logger from [LogConfig].
//
// When a log file is configured, entries go to both w and the rotating file. The closer is nil when no file is used.
func NewConfiguredLogger(w io.Writer, cfg LogConfig) (*log.Logger, io.Closer, error) {
	if w == nil {
		w = os.Stderr
	}

	var closer io.Closer
	if cfg.File != "" {
		lj, err := rotatingWriter(cfg)
		if err != nil {
			return nil, nil, err
		}
		w = io.MultiWriter(w, lj)
		closer = lj
	}

	logger := NewLogger(w)
	if cfg.Level != "" {
		level, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: log level %q", ErrInvalidConfig, cfg.Level)
		}
		SetLogLevel(logger, level)
	}
	return logger, closer, nil
}

func rotatingWriter(cfg LogConfig) (*lumberjack.Logger, error) {
	if dir := filepath.Dir(cfg.File); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 3
	}

	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}, nil
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}
