// Package logging builds the diagnostics logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvLogFile redirects diagnostics to a rotating file when set.
const EnvLogFile = "NGPT_LOG_FILE"

type Options struct {
	Debug  bool
	File   string
	Stderr io.Writer
}

// Setup returns a text slog logger and a cleanup func.
// With File set, output goes to a lumberjack rotated file instead of Stderr.
func Setup(opts Options) (*slog.Logger, func()) {
	level := slog.LevelWarn
	if opts.Debug {
		level = slog.LevelDebug
	}

	var w io.Writer = opts.Stderr
	if w == nil {
		w = os.Stderr
	}
	cleanup := func() {}

	if file := strings.TrimSpace(opts.File); file != "" {
		l := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
		w = l
		cleanup = func() { _ = l.Close() }
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), cleanup
}

// FileFromEnv returns the value of NGPT_LOG_FILE.
func FileFromEnv() string {
	return os.Getenv(EnvLogFile)
}
