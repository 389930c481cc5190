package internal

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ticketpay/entity"
	"ticketpay/services"
)

// Logger implements services.LogHandler on zap. Warnings and errors are also
// written to the database when one is set.
type Logger struct {
	category string
	zap      *zap.Logger
	database services.Database
}

func NewLogger(category string, debug bool, database services.Database) *Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	conf := zap.NewProductionConfig()
	conf.Level = zap.NewAtomicLevelAt(level)
	conf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	base, err := conf.Build()
	if err != nil {
		base = zap.NewNop()
	}
	return NewZapLogger(category, base, database)
}

// NewZapLogger wraps an existing zap logger.
func NewZapLogger(category string, base *zap.Logger, database services.Database) *Logger {
	return &Logger{
		category: category,
		zap:      base.With(zap.String("category", category)),
		database: database,
	}
}

func (l *Logger) Debug(text string) {
	l.zap.Debug(text)
}

func (l *Logger) Info(text string) {
	l.zap.Info(text)
}

func (l *Logger) Warn(text string) {
	l.zap.Warn(text)
	l.write("warn", text)
}

func (l *Logger) Error(text string, err error) {
	l.zap.Error(text, zap.Error(err))
	if err != nil {
		text = text + ": " + err.Error()
	}
	l.write("error", text)
}

func (l *Logger) write(level, text string) {
	if l.database == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	message := &entity.LogMessage{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Text:     text,
	}
	if err := l.database.WriteLogMessage(ctx, message); err != nil {
		l.zap.Warn("write log message", zap.Error(err))
	}
}
