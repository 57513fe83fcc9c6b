package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/nihalm/duetrack/internal/auth"
	"github.com/nihalm/duetrack/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// UserIDKey is the context key for the authenticated user ID
	UserIDKey ContextKey = "user_id"
)

// AccessTokenCookie is the session cookie set at login.
const AccessTokenCookie = "accessToken"

// Auth verifies the caller's access token and places the user id into
// the request context. The token is read from the Authorization header
// (Bearer scheme) or, failing that, the session cookie.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(AccessTokenCookie); err == nil {
					token = c.Value
				}
			}
			if token == "" {
				response.Unauthorized(w, "Authorization token required")
				return
			}

			claims, err := jwtManager.Validate(token)
			if err != nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// GetUserID extracts the user ID from the request context
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}
