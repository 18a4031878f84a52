// Package logging builds the process logger and writes structured logs for
// bus events.
package logging

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	eventbus "github.com/hanpama/bookgraph/internal/eventbus"
	events "github.com/hanpama/bookgraph/internal/events"
	executor "github.com/hanpama/bookgraph/internal/executor"
	graph "github.com/hanpama/bookgraph/internal/graph"
	reqid "github.com/hanpama/bookgraph/internal/reqid"
)

// New returns a logger writing to stderr at level in the given format
// ("json" or "console").
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	var cfg zap.Config
	switch format {
	case "json", "":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Sampling = nil
	return cfg.Build()
}

// Subscribe logs HTTP requests, GraphQL operations and created entities
// through logger. Operations with internal errors are logged at error level.
func Subscribe(logger *zap.Logger) (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			logger.Debug("http request",
				requestID(ctx),
				zap.String("method", e.Request.Method),
				zap.String("path", e.Request.URL.Path),
				zap.Int("status", e.Status),
				zap.Duration("duration", e.Duration),
			)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			fields := []zap.Field{
				requestID(ctx),
				zap.String("operation", e.OperationName),
				zap.String("type", e.OperationType),
				zap.Int("errors", len(e.Errors)),
				zap.Duration("duration", e.Duration),
			}
			if err := internalError(e.Errors); err != nil {
				logger.Error("graphql operation failed", append(fields, zap.Error(err))...)
				return
			}
			logger.Info("graphql operation", fields...)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.EntityCreated) {
			logger.Info("entity created",
				requestID(ctx),
				zap.String("kind", e.Kind),
				zap.Int("id", e.ID),
				zap.String("name", e.Name),
			)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func requestID(ctx context.Context) zap.Field {
	rid, _ := reqid.FromContext(ctx)
	return zap.String("request_id", rid)
}

// internalError returns the first error coded INTERNAL_SERVER_ERROR.
func internalError(errs []error) error {
	for _, err := range errs {
		var ge executor.GraphQLError
		if errors.As(err, &ge) && ge.Extensions["code"] == graph.CodeInternal {
			return err
		}
	}
	return nil
}
