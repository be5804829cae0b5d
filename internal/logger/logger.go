// Package logger holds the process-wide zap logger shared by the
// emitter and indexer services. Initialize must run once at startup;
// with a Sentry DSN configured, errors are mirrored to Sentry and lower
// levels become breadcrumbs.
package logger

import (
	"context"
	"time"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log          *zap.Logger
	sentryClient *sentry.Client
)

// Config holds logger configuration
type Config struct {
	Debug           bool
	SentryDSN       string
	BreadcrumbLevel zapcore.Level
	// Tags identify the service on every sentry event
	Tags map[string]string
}

// Initialize builds the global logger. Debug selects the development
// encoder at debug level; without a Sentry DSN the logger stays local.
func Initialize(cfg Config) error {
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Debug {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	base, err := zapConfig.Build()
	if err != nil {
		return err
	}

	if cfg.SentryDSN == "" {
		log = base
		return nil
	}

	scoped, err := attachSentry(base, cfg)
	if err != nil {
		return err
	}
	log = scoped
	return nil
}

// attachSentry wires a zapsentry core that forwards error-level entries
// to Sentry and records lower levels as breadcrumbs
func attachSentry(base *zap.Logger, cfg Config) (*zap.Logger, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}
	sentryClient = client

	breadcrumbLevel := cfg.BreadcrumbLevel
	if breadcrumbLevel == zapcore.InvalidLevel {
		breadcrumbLevel = zapcore.InfoLevel
	}

	core, err := zapsentry.NewCore(zapsentry.Configuration{
		Level:             zapcore.ErrorLevel,
		EnableBreadcrumbs: true,
		BreadcrumbLevel:   breadcrumbLevel,
		Tags:              cfg.Tags,
	}, zapsentry.NewSentryClientFromClient(client))
	if err != nil {
		return nil, err
	}

	return zapsentry.AttachCoreToLogger(core, base), nil
}

// Flush drains buffered sentry events, typically deferred from main
func Flush(timeout time.Duration) {
	if sentryClient != nil {
		sentryClient.Flush(timeout)
	}
}

// fromContext scopes the logger to the sentry hub carried by ctx, so
// breadcrumbs group per request instead of per process
func fromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return log
	}
	return log.With(zapsentry.Context(ctx))
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	log.Debug(msg, fields...)
}

// DebugCtx logs a debug message with context
func DebugCtx(ctx context.Context, msg string, fields ...zap.Field) {
	fromContext(ctx).Debug(msg, fields...)
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	log.Info(msg, fields...)
}

// InfoCtx logs an info message with context
func InfoCtx(ctx context.Context, msg string, fields ...zap.Field) {
	fromContext(ctx).Info(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	log.Warn(msg, fields...)
}

// WarnCtx logs a warning message with context
func WarnCtx(ctx context.Context, msg string, fields ...zap.Field) {
	fromContext(ctx).Warn(msg, fields...)
}

// Error logs err at error level. A nil err still records the fields.
func Error(err error, fields ...zap.Field) {
	log.Error(errMessage(err), fields...)
}

// ErrorCtx logs err at error level with context
func ErrorCtx(ctx context.Context, err error, fields ...zap.Field) {
	fromContext(ctx).Error(errMessage(err), fields...)
}

// FatalCtx logs a fatal message with context and exits
func FatalCtx(ctx context.Context, msg string, fields ...zap.Field) {
	fromContext(ctx).Fatal(msg, fields...)
}

func errMessage(err error) string {
	if err == nil {
		return "error occurred"
	}
	return err.Error()
}
