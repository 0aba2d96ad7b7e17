package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	wailslogger "github.com/wailsapp/wails/v2/pkg/logger"
)

// Logger writes leveled status lines to the app log file. Debug lines are
// suppressed unless verbose mode is enabled. A nil *Logger is a no-op so
// components can run without logging in tests.
type Logger struct {
	sink    wailslogger.Logger
	verbose bool
}

// NewFileLogger creates a logger appending to the given file path.
func NewFileLogger(path string, verbose bool) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	return &Logger{
		sink:    wailslogger.NewFileLogger(path),
		verbose: verbose,
	}, nil
}

// NewWithSink creates a logger over an arbitrary wails logger sink.
func NewWithSink(sink wailslogger.Logger, verbose bool) *Logger {
	return &Logger{sink: sink, verbose: verbose}
}

// Verbose reports whether debug lines are being written.
func (l *Logger) Verbose() bool {
	return l != nil && l.verbose
}

// Debug writes a debug line when verbose mode is on.
func (l *Logger) Debug(format string, args ...any) {
	if l == nil || l.sink == nil || !l.verbose {
		return
	}
	l.sink.Debug(fmt.Sprintf(format, args...))
}

// Info writes an informational line.
func (l *Logger) Info(format string, args ...any) {
	if l == nil || l.sink == nil {
		return
	}
	l.sink.Info(fmt.Sprintf(format, args...))
}

// Warning writes a warning line.
func (l *Logger) Warning(format string, args ...any) {
	if l == nil || l.sink == nil {
		return
	}
	l.sink.Warning(fmt.Sprintf(format, args...))
}

// Error writes an error line.
func (l *Logger) Error(format string, args ...any) {
	if l == nil || l.sink == nil {
		return
	}
	l.sink.Error(fmt.Sprintf(format, args...))
}

// Section writes a visually separated section header.
func (l *Logger) Section(title string) {
	if l == nil || l.sink == nil {
		return
	}
	ruler := strings.Repeat("=", 60)
	l.sink.Info(ruler)
	l.sink.Info(title)
	l.sink.Info(ruler)
}
