// Package logging builds the process-wide structured logger. Every layer of
// stockroom (stores, services, HTTP middleware) receives a *slog.Logger from
// here so log output stays uniform JSON.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON slog.Logger at the given level. Output goes to stderr;
// when logFile is non-empty it is additionally appended to that file. The
// logger is installed as the slog default. The cleanup func closes the log
// file if one was opened and must be deferred by the caller.
func New(level, logFile string) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	cleanup := func() {}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", logFile, err)
		}
		w = io.MultiWriter(os.Stderr, f)
		cleanup = func() { _ = f.Close() }
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

// parseLevel maps the LOG_LEVEL config value to a slog level. Unrecognized
// values fall back to info so a typo in the environment never silences logs.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
