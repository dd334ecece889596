package cliutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type LogOptions struct {
	// info|debug|warn|error
	LogLevel string

	// text|json
	LogFormat string

	// defaults to stderr
	Out io.Writer
}

func firstenv(names ...string) string {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return ""
}

// ParseLevel maps a level name to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %#v", s)
	}
}

// SetupSlog builds a logger from options, falling back to the
// DAGSCAN_LOG_LEVEL / LOG_LEVEL and DAGSCAN_LOG_FMT env vars, and installs it
// as the slog default. Libraries still logging through go-log are routed to
// the same writer.
func SetupSlog(options LogOptions) (*slog.Logger, error) {
	if options.LogLevel == "" {
		options.LogLevel = firstenv("DAGSCAN_LOG_LEVEL", "LOG_LEVEL")
	}
	level, err := ParseLevel(options.LogLevel)
	if err != nil {
		return nil, err
	}

	if options.LogFormat == "" {
		options.LogFormat = firstenv("DAGSCAN_LOG_FMT")
	}
	format := strings.ToLower(options.LogFormat)
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("invalid log format: %#v", options.LogFormat)
	}

	out := options.Out
	if out == nil {
		out = os.Stderr
	}

	hopts := slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(out, &hopts)
	} else {
		handler = slog.NewTextHandler(out, &hopts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	SetIpfsWriter(out, format, level)
	return logger, nil
}
