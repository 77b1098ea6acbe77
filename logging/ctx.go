package logging

import (
	"context"
	"sync"
)

type contextKey string

const loggerCacheKey contextKey = "logger"

// loggerCache caches loggers for each module name so that Module(m)(ctx)
// does not rebuild the logger on every call.
type loggerCache struct {
	createLoggerForModule LoggerFactory
	loggers               sync.Map
}

func (c *loggerCache) getLogger(module string) Logger {
	v, ok := c.loggers.Load(module)
	if !ok {
		v, _ = c.loggers.LoadOrStore(module, c.createLoggerForModule(module))
	}

	return v.(Logger) //nolint:forcetypeassert
}

// WithLogger returns a derived context with an associated logger factory.
func WithLogger(ctx context.Context, l LoggerFactory) context.Context {
	if l == nil {
		l = getNullLogger
	}

	return context.WithValue(ctx, loggerCacheKey, &loggerCache{createLoggerForModule: l})
}

// WithAdditionalLogger returns a derived context where each module logger
// emits both to the factory already associated with the context and to the
// provided one.
func WithAdditionalLogger(ctx context.Context, l LoggerFactory) context.Context {
	base := getNullLogger
	if lc, ok := ctx.Value(loggerCacheKey).(*loggerCache); ok {
		base = lc.createLoggerForModule
	}

	return WithLogger(ctx, func(module string) Logger {
		return Broadcast(base(module), l(module))
	})
}
