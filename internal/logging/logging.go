// Package logging builds the process logger: a zap core exposed through log/slog.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config describes where and how to log.
type Config struct {
	Level  string
	Format string
	// File — when set, logs go to this file with rotation instead of stdout.
	File       string
	MaxSize    int
	MaxBackups int
	// Writer — destination when File is empty; stdout when nil.
	Writer io.Writer
}

// ParseLevel maps a configured level name to a zap level.
// Supported: debug, info, warn, warning, error (case-insensitive).
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unsupported log level '%s'", level)
}

// NewCore creates the zap core described by cfg. The returned function
// flushes and closes the output.
func NewCore(cfg Config) (zapcore.Core, func() error, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case FormatJSON, "":
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "time"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	case FormatConsole:
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	default:
		return nil, nil, fmt.Errorf("unsupported log format '%s'", cfg.Format)
	}

	if cfg.File == "" {
		var w io.Writer = os.Stdout
		if cfg.Writer != nil {
			w = cfg.Writer
		}
		out := zapcore.Lock(zapcore.AddSync(w))
		return zapcore.NewCore(encoder, out, level), out.Sync, nil
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}
	return zapcore.NewCore(encoder, zapcore.AddSync(file), level), file.Close, nil
}

// NewSlog exposes core through the slog API.
func NewSlog(core zapcore.Core) *slog.Logger {
	return slog.New(zapslog.NewHandler(core, zapslog.WithCaller(true)))
}

// Setup builds the logger and installs it as the slog default.
// The returned function must be called on shutdown.
func Setup(cfg Config) (func() error, error) {
	core, closeFn, err := NewCore(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(NewSlog(core))
	return closeFn, nil
}
