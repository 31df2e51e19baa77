// Package logging provides the engine's logging facilities. It is adapted
// from Mutagen's pkg/logging: the five-level hierarchy is kept (Disabled
// through Debug; Mutagen's Trace, used for raw wire-byte tracing that has
// no counterpart in this in-process engine, is dropped), but the level is
// made an instance field instead of a package global so that tests can run
// multiple independently-configured loggers concurrently, and there is no
// per-sink filtering since the engine only ever logs to one destination.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// writer is an io.Writer that splits its input stream into lines and writes
// those lines to an underlying logger callback.
type writer struct {
	// callback is the logging callback.
	callback func(string)
	// buffer is any incomplete line fragment left over from a previous write.
	buffer []byte
}

// trimCarriageReturn trims any single trailing carriage return from the end
// of a byte slice.
func trimCarriageReturn(buffer []byte) []byte {
	if len(buffer) > 0 && buffer[len(buffer)-1] == '\r' {
		return buffer[:len(buffer)-1]
	}
	return buffer
}

// Write implements io.Writer.Write.
func (w *writer) Write(buffer []byte) (int, error) {
	w.buffer = append(w.buffer, buffer...)

	var processed int
	remaining := w.buffer
	for {
		index := bytes.IndexByte(remaining, '\n')
		if index == -1 {
			break
		}
		w.callback(string(trimCarriageReturn(remaining[:index])))
		processed += index + 1
		remaining = remaining[index+1:]
	}

	if processed > 0 {
		leftover := len(w.buffer) - processed
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}
		w.buffer = w.buffer[:leftover]
	}

	return len(buffer), nil
}

// Logger is the engine's logger type. It has the novel property that it
// still functions if nil, but it doesn't log anything. It wraps the
// standard library's log package so it respects any output destination set
// on it. It is safe for concurrent usage.
type Logger struct {
	// prefix is any prefix specified for the logger.
	prefix string
	// level is the minimum level that will be emitted by this logger.
	level Level
	// color indicates whether or not Warn/Error output should be colorized.
	color bool
}

// NewRoot creates a new root logger writing to the given level, emitting to
// os.Stderr. Color is enabled automatically when stderr is a terminal.
func NewRoot(level Level) *Logger {
	log.SetOutput(os.Stderr)
	return &Logger{
		level: level,
		color: isatty.IsTerminal(os.Stderr.Fd()),
	}
}

// Sublogger creates a new sublogger with the specified name appended to the
// current prefix.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{
		prefix: prefix,
		level:  l.level,
		color:  l.color,
	}
}

// output is the internal logging method.
func (l *Logger) output(calldepth int, level Level, line string) {
	if level > l.level {
		return
	}
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	log.Output(calldepth, line)
}

// Info logs basic execution information.
func (l *Logger) Info(v ...interface{}) {
	if l != nil {
		l.output(3, LevelInfo, fmt.Sprint(v...))
	}
}

// Infof logs basic execution information with Printf semantics.
func (l *Logger) Infof(format string, v ...interface{}) {
	if l != nil {
		l.output(3, LevelInfo, fmt.Sprintf(format, v...))
	}
}

// Debug logs advanced execution information, the level used for per-tick
// reconciliation tracing (entry selection, conflict classification,
// propagation decisions).
func (l *Logger) Debug(v ...interface{}) {
	if l != nil {
		l.output(3, LevelDebug, fmt.Sprint(v...))
	}
}

// Debugf logs advanced execution information with Printf semantics.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l != nil {
		l.output(3, LevelDebug, fmt.Sprintf(format, v...))
	}
}

// Warn logs non-fatal error information.
func (l *Logger) Warn(err error) {
	if l == nil {
		return
	}
	if l.level < LevelWarn {
		return
	}
	if l.color {
		l.output(3, LevelWarn, color.YellowString("warning: %v", err))
	} else {
		l.output(3, LevelWarn, fmt.Sprintf("warning: %v", err))
	}
}

// Error logs fatal or otherwise noteworthy error information.
func (l *Logger) Error(err error) {
	if l == nil {
		return
	}
	if l.color {
		l.output(3, LevelError, color.RedString("error: %v", err))
	} else {
		l.output(3, LevelError, fmt.Sprintf("error: %v", err))
	}
}

// Writer returns an io.Writer that writes lines using Info.
func (l *Logger) Writer() io.Writer {
	if l == nil {
		return io.Discard
	}
	return &writer{callback: func(s string) { l.Info(s) }}
}
