// Package logging builds the process logger and adapts it for gorm.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"cms-panel/internal/config"
)

// New returns a slog.Logger writing to stdout.
func New(cfg config.LogConfig) *slog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter returns a slog.Logger writing to w: JSON when format is "json", text otherwise.
func NewWithWriter(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// GormLogger forwards gorm's SQL tracing to slog.
type GormLogger struct {
	logger        *slog.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger returns a gorm logger. With traceQueries every statement is logged
// at debug level; otherwise only errors and slow queries are reported.
func NewGormLogger(logger *slog.Logger, traceQueries bool) *GormLogger {
	level := gormlogger.Warn
	if traceQueries {
		level = gormlogger.Info
	}
	return &GormLogger{
		logger:        logger.With("component", "gorm"),
		level:         level,
		slowThreshold: 500 * time.Millisecond,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.InfoContext(ctx, msg, "args", args)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.WarnContext(ctx, msg, "args", args)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.ErrorContext(ctx, msg, "args", args)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		query, rows := fc()
		l.logger.ErrorContext(ctx, "query failed", "error", err, "elapsed", elapsed, "rows", rows, "sql", query)
	case elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		query, rows := fc()
		l.logger.WarnContext(ctx, "slow query", "elapsed", elapsed, "rows", rows, "sql", query)
	case l.level >= gormlogger.Info:
		query, rows := fc()
		l.logger.DebugContext(ctx, "query", "elapsed", elapsed, "rows", rows, "sql", query)
	}
}
