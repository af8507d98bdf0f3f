// Package logger provides the leveled logging behind the --verbose,
// --quiet, and --log flags. The threshold shapes terminal output only;
// an attached log file records every message so a quiet run still
// leaves a usable trace.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level is a message severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the level name used in file log lines
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// tag returns the terminal prefix for a level. Info lines carry none:
// they are the tool's normal voice.
func (l Level) tag() string {
	switch l {
	case LevelDebug:
		return "debug: "
	case LevelWarn:
		return "warning: "
	case LevelError:
		return "error: "
	default:
		return ""
	}
}

// Logger writes leveled messages to a terminal writer and, when a file
// is attached, to the log file.
type Logger struct {
	mu        sync.Mutex
	threshold Level
	console   io.Writer
	file      io.WriteCloser
	// now is the clock for file log timestamps
	now func() time.Time
}

// New creates a logger writing terminal output to console
func New(console io.Writer) *Logger {
	return &Logger{
		threshold: LevelInfo,
		console:   console,
		now:       time.Now,
	}
}

var defaultLogger = sync.OnceValue(func() *Logger {
	return New(os.Stderr)
})

// Default returns the shared logger used by the package-level functions
func Default() *Logger {
	return defaultLogger()
}

// SetVerbose lowers the terminal threshold so debug messages show
func (l *Logger) SetVerbose(verbose bool) {
	if verbose {
		l.setThreshold(LevelDebug)
	}
}

// SetQuiet raises the terminal threshold to errors only. Applied after
// SetVerbose, quiet wins.
func (l *Logger) SetQuiet(quiet bool) {
	if quiet {
		l.setThreshold(LevelError)
	}
}

func (l *Logger) setThreshold(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.threshold = level
}

// AttachFile starts recording all messages to the log file under
// LogDir, creating the directory as needed. Messages logged before the
// call are not replayed.
func (l *Logger) AttachFile() error {
	dir, err := LogDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, "archpkg.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
	}
	l.file = f
	return nil
}

// Close detaches and closes the log file. Safe to call without an
// attached file.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

// LogDir returns the directory holding the log file, following
// XDG_STATE_HOME with ~/.local/state as the fallback.
func LogDir() (string, error) {
	if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
		return filepath.Join(xdgState, "archpkg"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "archpkg"), nil
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if level >= l.threshold && l.console != nil {
		fmt.Fprintf(l.console, "%s%s\n", level.tag(), msg)
	}
	// The file ignores the threshold
	if l.file != nil {
		fmt.Fprintf(l.file, "%s %-5s %s\n", l.now().Format("2006-01-02 15:04:05"), level, msg)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Package-level convenience functions over the shared logger
func Debug(format string, args ...interface{}) { Default().Debug(format, args...) }
func Info(format string, args ...interface{})  { Default().Info(format, args...) }
func Warn(format string, args ...interface{})  { Default().Warn(format, args...) }
func Error(format string, args ...interface{}) { Default().Error(format, args...) }
func SetVerbose(v bool)                        { Default().SetVerbose(v) }
func SetQuiet(q bool)                          { Default().SetQuiet(q) }
