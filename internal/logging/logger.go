// Package logging configures the process-wide slog default used by the
// pipeline components. The CLI layer keeps its own logrus logger for
// user-facing output; this covers the structured component logs.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Config holds logger configuration
type Config struct {
	Verbose    bool      // Debug level when true
	JSONFormat bool      // JSON handler instead of text
	Output     io.Writer // Defaults to stderr
}

var once sync.Once

// Setup installs the default slog logger. Safe to call more than once;
// only the first call takes effect.
func Setup(cfg Config) {
	once.Do(func() {
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}

		level := slog.LevelInfo
		if cfg.Verbose {
			level = slog.LevelDebug
		}
		opts := &slog.HandlerOptions{Level: level, AddSource: cfg.Verbose}

		var handler slog.Handler
		if cfg.JSONFormat {
			handler = slog.NewJSONHandler(out, opts)
		} else {
			handler = slog.NewTextHandler(out, opts)
		}
		slog.SetDefault(slog.New(handler))
	})
}
