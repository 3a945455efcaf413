// Package logger wraps log/slog with a process-wide logger and a
// per-request logger carried in the context.
//
//	log := logger.WithCtx(r.Context())
//	log.Info("product created", "slug", p.Slug)
package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/rainbowartistery/atelier/config"
)

var L *slog.Logger

func init() {
	L = slog.New(consoleHandler())
	slog.SetDefault(L)
}

func consoleHandler() slog.Handler {
	if config.IsProduction() {
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// Setup attaches the MongoDB sink when LOG_MONGO_URI is configured. The
// returned func flushes and disconnects it; it is never nil.
func Setup() func() {
	uri := config.LogMongoURI()
	if uri == "" {
		return func() {}
	}

	sink, err := NewMongoHandler(uri, config.LogMongoDB(), "logs")
	if err != nil {
		L.Warn("logger: mongo sink disabled", "error", err)
		return func() {}
	}

	L = slog.New(NewMultiHandler(consoleHandler(), sink))
	slog.SetDefault(L)
	return sink.Close
}

type ctxKey struct{}

// WithCtx returns the request logger stored by InjectLogger, or L.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores log in ctx. Called by the request logging middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any) { L.Info(msg, args...) }
func Warn(msg string, args ...any) { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
