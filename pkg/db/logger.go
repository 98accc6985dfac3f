package db

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormLogrusLogger routes gorm's logging through logrus. Statements are
// logged at debug level; failures and slow statements are raised.
type GormLogrusLogger struct {
	logger        *logrus.Logger
	slowThreshold time.Duration
	level         logger.LogLevel
}

func NewGormLogrusLogger(baseLogger *logrus.Logger) *GormLogrusLogger {
	return &GormLogrusLogger{
		logger:        baseLogger,
		slowThreshold: 200 * time.Millisecond,
		level:         logger.Info,
	}
}

// LogMode returns a copy filtering at level, as gorm's Session expects.
func (l *GormLogrusLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogrusLogger) entry(ctx context.Context, kind string) *logrus.Entry {
	return l.logger.WithContext(ctx).WithFields(logrus.Fields{
		"source": "gorm",
		"type":   kind,
	})
}

func (l *GormLogrusLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		l.entry(ctx, "info").Debugf(msg, args...)
	}
}

func (l *GormLogrusLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		l.entry(ctx, "warn").Warnf(msg, args...)
	}
}

func (l *GormLogrusLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		l.entry(ctx, "error").Errorf(msg, args...)
	}
}

// Trace logs one executed statement.
func (l *GormLogrusLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	entry := l.entry(ctx, "trace").WithFields(logrus.Fields{
		"sql":      sql,
		"rows":     rows,
		"duration": elapsed.String(),
	})

	switch {
	// Empty First/Take results surface as ErrNotFound from the callers.
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		entry.WithError(err).Error("Query failed")
	case elapsed > l.slowThreshold:
		entry.WithField("threshold", l.slowThreshold.String()).Warn("Slow query")
	default:
		entry.Debug("Query executed")
	}
}
