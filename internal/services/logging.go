package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
	config LogConfig
}

type LogConfig struct {
	Service     string
	Component   string
	EnableDebug bool
}

func NewServiceLogger(logger *slog.Logger, config LogConfig) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", config.Service, "component", config.Component),
		config: config,
	}
}

// LogOperation records the outcome of a service call. The log level tracks
// the error taxonomy: validation and permission problems are warnings, a
// missing resource is informational, everything else is an error.
func (l *ServiceLogger) LogOperation(ctx context.Context, operation, userID, resourceID string, duration time.Duration, err error) {
	level := slog.LevelInfo
	status := "success"

	if err != nil {
		level = slog.LevelError
		status = "error"

		switch {
		case IsValidation(err):
			level = slog.LevelWarn
			status = "validation_error"
		case IsUnauthorized(err) || IsForbidden(err):
			level = slog.LevelWarn
			status = "denied"
		case IsNotFound(err):
			level = slog.LevelInfo
			status = "not_found"
		case IsConflict(err):
			level = slog.LevelWarn
			status = "conflict"
		}
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("user_id", userID),
		slog.String("resource_id", resourceID),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		if ve, ok := err.(ValidationErrors); ok {
			attrs = append(attrs, slog.Int("validation_errors_count", len(ve)))
		}
	}

	l.logger.LogAttrs(ctx, level, fmt.Sprintf("%s %s", operation, status), attrs...)
}

// ContextualLogger wraps a single operation with timing
type ContextualLogger struct {
	logger    *ServiceLogger
	operation string
	userID    string
	startTime time.Time
	ctx       context.Context
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation, userID string) *ContextualLogger {
	return &ContextualLogger{
		logger:    l,
		operation: operation,
		userID:    userID,
		startTime: time.Now(),
		ctx:       ctx,
	}
}

func (cl *ContextualLogger) LogResult(resourceID string, err error) {
	cl.logger.LogOperation(cl.ctx, cl.operation, cl.userID, resourceID, time.Since(cl.startTime), err)
}
