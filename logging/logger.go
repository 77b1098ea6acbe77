// Package logging provides module-scoped loggers carried through context.
package logging

import (
	"context"

	"go.uber.org/zap"
)

// Logger is the logger type used throughout the codebase.
type Logger = *zap.SugaredLogger

// LoggerFactory creates a logger for a given module.
type LoggerFactory func(module string) Logger

// NullLogger discards all log output.
var NullLogger = zap.NewNop().Sugar()

func getNullLogger(module string) Logger {
	return NullLogger
}

// Module returns a function that returns a logger for the given module
// based on the provided context.
func Module(module string) func(ctx context.Context) Logger {
	return func(ctx context.Context) Logger {
		if lc, ok := ctx.Value(loggerCacheKey).(*loggerCache); ok {
			return lc.getLogger(module)
		}

		return NullLogger
	}
}
