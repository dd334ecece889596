package cliutil

import (
	"io"
	"log/slog"

	ipfslog "github.com/ipfs/go-log/v2"
	"go.uber.org/zap/zapcore"
)

// SetIpfsWriter points the go-log primary core (used by the flatfs and
// blockstore packages) at out, with a matching encoding and level.
func SetIpfsWriter(out io.Writer, format string, level slog.Level) {
	ecfg := zapcore.EncoderConfig{
		MessageKey:  "msg",
		LevelKey:    "level",
		NameKey:     "logger",
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
	var ze zapcore.Encoder
	if format == "json" {
		ze = zapcore.NewJSONEncoder(ecfg)
	} else {
		ze = zapcore.NewConsoleEncoder(ecfg)
	}

	var zl zapcore.Level
	switch {
	case level <= slog.LevelDebug:
		zl = zapcore.DebugLevel
	case level <= slog.LevelInfo:
		zl = zapcore.InfoLevel
	case level <= slog.LevelWarn:
		zl = zapcore.WarnLevel
	default:
		zl = zapcore.ErrorLevel
	}
	ipfslog.SetPrimaryCore(zapcore.NewCore(ze, zapcore.AddSync(out), zl))
}
