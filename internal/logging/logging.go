// Package logging configures zerolog for operator diagnostics.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Options configures a logger.
type Options struct {
	Level  string
	Writer io.Writer
	// Console forces the human-readable writer. When false it is chosen only if
	// Writer is a terminal.
	Console bool
}

// New builds a logger writing to opt.Writer (stderr by default).
func New(opt Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}
	if opt.Console || IsTerminal(w) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(ParseLevel(opt.Level)).With().Timestamp().Logger()
}

// OpenFile opens path for appending, creating parent directories.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// ParseLevel maps a level name to zerolog, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
