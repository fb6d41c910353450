// Package log provides context-aware logging for git-meta.
package log

import (
	"context"
	"fmt"
	"io"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

type ctxKey struct{}

// Logger provides user-facing output, verbose command logging and leveled
// key/value diagnostics.
type Logger struct {
	out     io.Writer
	verbose bool
	quiet   bool
	diag    *charmlog.Logger
}

// New creates a new logger writing to out.
// Verbose enables command echoing and debug diagnostics; quiet suppresses
// everything except warnings and errors.
func New(out io.Writer, verbose, quiet bool) *Logger {
	level := charmlog.InfoLevel
	switch {
	case verbose:
		level = charmlog.DebugLevel
	case quiet:
		level = charmlog.WarnLevel
	}
	diag := charmlog.NewWithOptions(out, charmlog.Options{
		Level:  level,
		Prefix: "git-meta",
	})
	return &Logger{out: out, verbose: verbose, quiet: quiet, diag: diag}
}

// SetLevel overrides the diagnostic level ("debug", "info", "warn", "error").
// Unknown names are ignored.
func (l *Logger) SetLevel(name string) {
	if l.diag == nil || name == "" {
		return
	}
	level, err := charmlog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return
	}
	l.diag.SetLevel(level)
}

// WithLogger attaches a logger to the context.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from context.
// Returns a no-op logger if none is attached.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return &Logger{out: io.Discard}
}

// Printf writes formatted output unless quiet.
func (l *Logger) Printf(format string, args ...any) {
	if l.quiet {
		return
	}
	fmt.Fprintf(l.out, format, args...)
}

// Println writes a line of output unless quiet.
func (l *Logger) Println(args ...any) {
	if l.quiet {
		return
	}
	fmt.Fprintln(l.out, args...)
}

// Command logs an external command execution.
// Only prints when verbose mode is enabled.
func (l *Logger) Command(name string, args ...string) {
	if l.verbose {
		fmt.Fprintf(l.out, "$ %s %s\n", name, strings.Join(args, " "))
	}
}

// Debug logs a diagnostic message with key/value pairs.
func (l *Logger) Debug(msg string, keyvals ...any) {
	if l.diag != nil {
		l.diag.Debug(msg, keyvals...)
	}
}

// Info logs an informational message with key/value pairs.
func (l *Logger) Info(msg string, keyvals ...any) {
	if l.diag != nil {
		l.diag.Info(msg, keyvals...)
	}
}

// Warn logs a warning with key/value pairs. Warnings are shown even when quiet.
func (l *Logger) Warn(msg string, keyvals ...any) {
	if l.diag != nil {
		l.diag.Warn(msg, keyvals...)
	}
}

// Verbose returns true if verbose mode is enabled.
func (l *Logger) Verbose() bool {
	return l.verbose
}

// Writer returns the underlying writer.
func (l *Logger) Writer() io.Writer {
	return l.out
}
