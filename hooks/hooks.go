// Package hooks provides production-ready Hook, Logger and MetricsCollector
// implementations.
package hooks

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Skryldev/plotting/core"
)

// ── Structured logger adapter ─────────────────────────────────────────────────

// ZapLogger wraps a zap.Logger to satisfy core.Logger.  Fields are
// alternating key/value pairs.
type ZapLogger struct {
	log *zap.SugaredLogger
}

// NewZapLogger creates a logger backed by zap.
func NewZapLogger(l *zap.Logger) *ZapLogger { return &ZapLogger{log: l.Sugar()} }

// NewLogger builds a zap logger for the given level.  debug selects the
// human-readable development encoder.
func NewLogger(level string, debug bool) (*ZapLogger, error) {
	var zcfg zap.Config
	if debug {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(l), nil
}

// Zap exposes the underlying logger, e.g. for gin middleware.
func (z *ZapLogger) Zap() *zap.Logger { return z.log.Desugar() }

// Sync flushes buffered log entries.
func (z *ZapLogger) Sync() error { return z.log.Sync() }

func (z *ZapLogger) Debug(msg string, fields ...interface{}) { z.log.Debugw(msg, fields...) }
func (z *ZapLogger) Info(msg string, fields ...interface{})  { z.log.Infow(msg, fields...) }
func (z *ZapLogger) Warn(msg string, fields ...interface{})  { z.log.Warnw(msg, fields...) }
func (z *ZapLogger) Error(msg string, fields ...interface{}) { z.log.Errorw(msg, fields...) }

// ── Logging hook ──────────────────────────────────────────────────────────────

// LoggingHook logs before/after each post-processing step.
type LoggingHook struct {
	logger core.Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l core.Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) BeforeStep(_ context.Context, stepName string, img *core.EncodedImage) {
	h.logger.Debug("pipeline.step.start",
		"step", stepName,
		"input", describe(img),
	)
}

func (h *LoggingHook) AfterStep(_ context.Context, stepName string, img *core.EncodedImage, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("pipeline.step.error",
			"step", stepName,
			"duration_ms", d.Milliseconds(),
			"error", err.Error(),
		)
		return
	}
	h.logger.Debug("pipeline.step.done",
		"step", stepName,
		"duration_ms", d.Milliseconds(),
		"output", describe(img),
	)
}

func describe(img *core.EncodedImage) string {
	if img == nil {
		return "nil"
	}
	return img.String()
}
