package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"

	"github.com/example/meeting-scheduler/internal/application"
)

const (
	headerUserID      = "X-User-ID"
	headerUserEmail   = "X-User-Email"
	headerManageToken = "X-Manage-Token"
)

// IdentifyPrincipal reads the caller identity forwarded by the gateway and
// attaches it to the request context. Missing headers yield an anonymous
// principal; services decide what an anonymous caller may do.
func IdentifyPrincipal() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := application.Principal{
				UserID:      strings.TrimSpace(r.Header.Get(headerUserID)),
				Email:       strings.TrimSpace(r.Header.Get(headerUserEmail)),
				ManageToken: strings.TrimSpace(r.Header.Get(headerManageToken)),
			}
			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			logger.DebugContext(ctx, "request started", "remote_addr", r.RemoteAddr)
			next.ServeHTTP(rec, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", rec.status, "duration", time.Since(start))
		})
	}
}

// recoveryLogger adapts slog to handlers.RecoveryHandlerLogger.
type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("panic recovered", "panic", strings.TrimSpace(fmt.Sprintln(v...)))
}

// Recover turns handler panics into 500 responses and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger: defaultLogger(logger)}),
		handlers.PrintRecoveryStack(false),
	)
}
