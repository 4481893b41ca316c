package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Xreatlabs/Helium-sub000/internal/services"
)

// Limiter decides whether a caller may make another request this window.
type Limiter interface {
	AllowRequest(ctx context.Context, caller string, limitPerMinute int) (bool, int, time.Time, error)
}

// RateLimitMiddleware enforces a per-user request budget
type RateLimitMiddleware struct {
	limiter        Limiter
	limitPerMinute int
	metrics        *services.MetricsCollector
	logger         *zap.Logger
}

func NewRateLimitMiddleware(limiter Limiter, limitPerMinute int, metrics *services.MetricsCollector, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter:        limiter,
		limitPerMinute: limitPerMinute,
		metrics:        metrics,
		logger:         logger,
	}
}

// Middleware must run after the auth middleware; requests without a session pass through.
func (m *RateLimitMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetSessionFromContext(r.Context())
		if claims == nil || m.limitPerMinute <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		allowed, remaining, resetAt, err := m.limiter.AllowRequest(r.Context(), "user:"+claims.UserID(), m.limitPerMinute)
		if err != nil {
			m.logger.Error("rate limiter error", zap.Error(err))
			http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limitPerMinute))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			m.logger.Warn("rate limit exceeded", zap.String("user_id", claims.UserID()))
			m.metrics.RecordRateLimitHit()
			retryAfter := int(time.Until(resetAt).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":"Rate limit exceeded. Try again later."}`)
			return
		}

		next.ServeHTTP(w, r)
	})
}
