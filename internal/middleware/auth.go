package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionClaims are carried by the session token issued after the Discord login.
type SessionClaims struct {
	PteroID  int    `json:"ptero_id"`
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	jwt.RegisteredClaims
}

// UserID is the Discord user id the session belongs to.
func (c *SessionClaims) UserID() string {
	return c.Subject
}

type AuthMiddleware struct {
	secret []byte
	logger *zap.Logger
}

func NewAuthMiddleware(secret string, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret), logger: logger}
}

// IssueToken signs a session token. Used by the login flow and by tests.
func (m *AuthMiddleware) IssueToken(claims SessionClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *AuthMiddleware) parse(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			m.logger.Warn("request without session token", zap.String("method", r.Method), zap.String("path", r.URL.Path))
			http.Error(w, `{"error":"Missing session token. Please provide an Authorization: Bearer header."}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.parse(raw)
		if err != nil {
			m.logger.Warn("invalid session token", zap.String("path", r.URL.Path), zap.Error(err))
			http.Error(w, `{"error":"Invalid session token"}`, http.StatusUnauthorized)
			return
		}

		annotateUser(r.Context(), claims.UserID())
		ctx := context.WithValue(r.Context(), sessionContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly must run after Middleware.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetSessionFromContext(r.Context())
		if claims == nil || !claims.Admin {
			http.Error(w, `{"error":"Admin access required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetSessionFromContext(ctx context.Context) *SessionClaims {
	if claims, ok := ctx.Value(sessionContextKey).(*SessionClaims); ok {
		return claims
	}
	return nil
}

// WithSession returns a copy of ctx carrying claims.
func WithSession(ctx context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(ctx, sessionContextKey, claims)
}
