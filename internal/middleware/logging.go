package middleware

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/HSousa1987/Lavandaria-sub001/internal/envelope"
	"github.com/HSousa1987/Lavandaria-sub001/internal/logging"
	"github.com/HSousa1987/Lavandaria-sub001/internal/telemetry"
)

// RequestLogger logs one line per request and records HTTP metrics. A child
// logger carrying correlation_id is placed on the context for handlers.
// metrics may be nil.
func RequestLogger(logger logging.Logger, metrics *telemetry.ServerMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			id, _ := envelope.CorrelationID(r.Context())
			reqLogger := logger.With("correlation_id", id)
			ctx := logging.WithLogger(r.Context(), reqLogger)

			defer func() {
				elapsed := time.Since(start)
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				route := r.URL.Path
				if rctx := chi.RouteContext(ctx); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}

				metrics.RecordRequest(ctx, r.Method, route, strconv.Itoa(status), float64(elapsed.Microseconds())/1000)

				args := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration_ms", elapsed.Milliseconds(),
					"remote", r.RemoteAddr,
				}
				if status >= http.StatusInternalServerError {
					reqLogger.Error(ctx, "request", args...)
				} else {
					reqLogger.Info(ctx, "request", args...)
				}
			}()

			next.ServeHTTP(ww, r.WithContext(ctx))
		})
	}
}

// Recoverer turns a panic into a 500 INTERNAL_ERROR envelope. The correlation
// header set earlier in the chain is preserved.
func Recoverer(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				log := logging.FromContext(r.Context(), logger)
				log.Error(r.Context(), "panic serving request", "panic", rvr, "stack", string(debug.Stack()))

				if ww, ok := w.(chimiddleware.WrapResponseWriter); ok && ww.Status() != 0 {
					return
				}
				envelope.WriteError(w, r, envelope.ErrInternal)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
