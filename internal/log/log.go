// Package log holds the process-wide zerolog logger and the per-component
// loggers derived from it.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the root logger. Component loggers are rebuilt from it by Init.
var Logger zerolog.Logger

// Component loggers.
var (
	UTXO      zerolog.Logger
	Broadcast zerolog.Logger
	Publish   zerolog.Logger
	Node      zerolog.Logger
	Storage   zerolog.Logger
)

const consoleTime = "15:04:05"

func init() {
	Logger = NewConsoleLogger(os.Stderr, "info")
	initComponentLoggers()
}

// Options selects where and how much to log.
type Options struct {
	Level   string
	JSON    bool      // JSON records on the console instead of colored text
	File    string    // extra JSON sink, appended to
	Console io.Writer // defaults to os.Stderr
}

// Init replaces the root logger. The returned closer releases the log file,
// if any.
func Init(o Options) (io.Closer, error) {
	console := o.Console
	if console == nil {
		console = os.Stderr
	}
	if !o.JSON {
		console = consoleWriter(console)
	}

	var closer io.Closer = nopCloser{}
	out := console
	if o.File != "" {
		f, err := os.OpenFile(o.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, err
		}
		// The file always gets JSON so it stays machine-readable.
		out = zerolog.MultiLevelWriter(console, f)
		closer = f
	}

	Logger = newLogger(out, o.Level)
	initComponentLoggers()
	return closer, nil
}

// NewConsoleLogger creates a colored text logger writing to w.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(consoleWriter(w), level)
}

// NewJSONLogger creates a JSON logger writing to w.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(w, level)
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTime}
}

// parseLevel maps a level name to zerolog; unknown names mean info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	}
	return zerolog.InfoLevel
}

func initComponentLoggers() {
	UTXO = WithComponent("utxo")
	Broadcast = WithComponent("broadcast")
	Publish = WithComponent("publish")
	Node = WithComponent("node")
	Storage = WithComponent("storage")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
