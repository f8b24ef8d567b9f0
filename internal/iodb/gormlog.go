package iodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// slowQuery is the duration after which a query is logged as a warning.
const slowQuery = 500 * time.Millisecond

// gormLogger sends GORM logs to slog.
type gormLogger struct {
	slowThreshold time.Duration
	level         logger.LogLevel
}

func newGormLogger() logger.Interface {
	level := logger.Warn
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		level = logger.Info
	}
	return &gormLogger{slowThreshold: slowQuery, level: level}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	res := *l
	res.level = level
	return &res
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		slog.InfoContext(ctx, fmt.Sprintf(msg, data...), "component", "gorm")
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		slog.WarnContext(ctx, fmt.Sprintf(msg, data...), "component", "gorm")
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		slog.ErrorContext(ctx, fmt.Sprintf(msg, data...), "component", "gorm")
	}
}

// Trace logs failed and slow queries. With debug logging every query is
// logged.
func (l *gormLogger) Trace(
	ctx context.Context,
	begin time.Time,
	fc func() (sql string, rowsAffected int64),
	err error,
) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= logger.Error &&
		!errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		slog.ErrorContext(ctx, "Query failed",
			"component", "gorm",
			"sql", sql,
			"rows", rows,
			"duration", elapsed,
			"error", err,
		)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold &&
		l.level >= logger.Warn:
		sql, rows := fc()
		slog.WarnContext(ctx, "Slow query",
			"component", "gorm",
			"sql", sql,
			"rows", rows,
			"duration", elapsed,
			"threshold", l.slowThreshold,
		)
	case l.level >= logger.Info:
		sql, rows := fc()
		slog.DebugContext(ctx, "Query",
			"component", "gorm",
			"sql", sql,
			"rows", rows,
			"duration", elapsed,
		)
	}
}
