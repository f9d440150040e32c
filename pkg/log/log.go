package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
)

var (
	defaultLogLevel slog.LevelVar
	defaultLogger   = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: &defaultLogLevel,
	}))
)

func init() {
	defaultLogLevel.Set(slog.LevelInfo)
}

type contextKey struct{}

var loggerKey = contextKey{}

// Ctx returns the logger from the context. If no logger is found, it returns the default logger.
func Ctx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return defaultLogger
}

// With returns a new context with the given logger.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// SetDefaultLogLevel changes the level of the default logger.
func SetDefaultLogLevel(level slog.Level) {
	defaultLogLevel.Set(level)
}

// Configured syncs the default logger's level with flags. lflag automatically
// sets llog's level from the log-level flag, so once flags are parsed we
// mirror it into slog.
func Configured() {
	lflag.Do(func() {
		switch llog.GetLevel() {
		case llog.DebugLevel:
			defaultLogLevel.Set(slog.LevelDebug)
		case llog.InfoLevel:
			defaultLogLevel.Set(slog.LevelInfo)
		case llog.WarnLevel:
			defaultLogLevel.Set(slog.LevelWarn)
		case llog.ErrorLevel:
			defaultLogLevel.Set(slog.LevelError)
		default:
			panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
		}
	})
}
