package main

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jpalmerr/clusterstats/config"
)

// newLogger creates a JSON logger for CLI use. When the run file names a log
// file, records are also written there and rotated by lumberjack.
//
// The returned func closes the log file, if any.
func newLogger(w io.Writer, lc config.LogConfig, verbose bool) (*slog.Logger, func()) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	closeFn := func() {}
	if lc.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAge:     lc.MaxAgeDays,
		}
		w = io.MultiWriter(w, rotator)
		closeFn = func() { _ = rotator.Close() }
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	return logger, closeFn
}
