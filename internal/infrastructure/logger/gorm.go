package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's statement log through zap
type GormLogger struct {
	logger        *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	skipNotFound  bool
}

type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which statements log at warn; 0 disables it
func WithSlowThreshold(d time.Duration) GormLoggerOption {
	return func(l *GormLogger) { l.slowThreshold = d }
}

// WithIgnoreRecordNotFoundError drops gorm.ErrRecordNotFound from the error log
func WithIgnoreRecordNotFoundError(ignore bool) GormLoggerOption {
	return func(l *GormLogger) { l.skipNotFound = ignore }
}

// NewGormLogger creates a new GORM logger backed by zap
func NewGormLogger(z *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		logger:        z.Named("gorm"),
		level:         level,
		slowThreshold: 200 * time.Millisecond,
		skipNotFound:  true,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.with(ctx).Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.with(ctx).Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.with(ctx).Sugar().Errorf(msg, data...)
	}
}

// Trace logs one executed statement
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= gormlogger.Error:
		if l.skipNotFound && errors.Is(err, gorm.ErrRecordNotFound) {
			return
		}
		l.with(ctx).Error("sql error", append(l.fields(fc, elapsed), zap.Error(err))...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		l.with(ctx).Warn("slow sql", append(l.fields(fc, elapsed), zap.Duration("threshold", l.slowThreshold))...)
	case l.level >= gormlogger.Info:
		l.with(ctx).Debug("sql", l.fields(fc, elapsed)...)
	}
}

func (l *GormLogger) fields(fc func() (string, int64), elapsed time.Duration) []zap.Field {
	sql, rows := fc()
	return []zap.Field{
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}
}

func (l *GormLogger) with(ctx context.Context) *zap.Logger {
	out := l.logger
	if id := GetRequestID(ctx); id != "" {
		out = out.With(zap.String("request_id", id))
	}
	return WithTraceContext(ctx, out)
}

// MapGormLogLevel maps a config string to a gorm level; unknown values mean warn
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
