// Package diag writes coloured one-line diagnostics to the terminal.
package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Logger prints info, warning and error lines.
type Logger struct {
	out   io.Writer
	Quiet bool

	info *color.Color
	warn *color.Color
	err  *color.Color
}

// New creates a logger writing to w. A nil w means stderr.
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		out:  w,
		info: color.New(color.FgGreen),
		warn: color.New(color.FgYellow),
		err:  color.New(color.FgRed),
	}
}

// Discard returns a logger that prints nothing.
func Discard() *Logger {
	l := New(io.Discard)
	l.Quiet = true
	return l
}

// Infof prints a progress line unless Quiet is set.
func (l *Logger) Infof(format string, args ...interface{}) {
	if l == nil || l.Quiet {
		return
	}
	l.line(l.info, format, args...)
}

// Warnf prints a warning.
func (l *Logger) Warnf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.line(l.warn, format, args...)
}

// Errorf prints an error.
func (l *Logger) Errorf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.line(l.err, "error: "+format, args...)
}

func (l *Logger) line(c *color.Color, format string, args ...interface{}) {
	c.Fprintln(l.out, fmt.Sprintf(format, args...))
}
