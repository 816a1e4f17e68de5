package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger prefers the request scoped logger installed by RequestLogger
// and tags it with the handler, operation and caller. Manage tokens are never
// logged; only their presence is.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	pairs := make([]any, 0, 8+len(attrs))
	pairs = append(pairs, "handler", handlerName)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if principal, ok := PrincipalFromContext(ctx); ok {
		if principal.UserID != "" {
			pairs = append(pairs, "caller_user_id", principal.UserID)
		}
		if principal.ManageToken != "" {
			pairs = append(pairs, "caller_has_token", true)
		}
	}
	pairs = append(pairs, attrs...)
	return logger.With(pairs...)
}
