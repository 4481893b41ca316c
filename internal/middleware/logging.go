package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Xreatlabs/Helium-sub000/internal/services"
)

const (
	requestLogContextKey contextKey = "request_log"

	// unmatchedRoute labels requests no route claimed.
	unmatchedRoute = "unmatched"
)

// statusRecorder captures the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// requestLog collects fields that inner middleware learns about the request.
type requestLog struct {
	userID string
}

// annotateUser records the authenticated user on the request log, if any.
func annotateUser(ctx context.Context, userID string) {
	if l, ok := ctx.Value(requestLogContextKey).(*requestLog); ok {
		l.userID = userID
	}
}

// RequestLogger logs every request and records it in the metrics registry.
// Routes are labelled by their template so ids do not explode label cardinality.
func RequestLogger(logger *zap.Logger, metrics *services.MetricsCollector) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			entry := &requestLog{}
			r = r.WithContext(context.WithValue(r.Context(), requestLogContextKey, entry))

			next.ServeHTTP(rec, r)

			route := unmatchedRoute
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			duration := time.Since(start)
			metrics.RecordRequest(r.Method, route, rec.statusCode, duration)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.statusCode),
				zap.Duration("duration", duration),
			}
			if entry.userID != "" {
				fields = append(fields, zap.String("user_id", entry.userID))
			}
			logger.Info("request", fields...)
		})
	}
}
