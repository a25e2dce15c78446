package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/thungan1909/easy-english-backend/internal/auth"
)

type contextKey string

const contextUserIDKey contextKey = "userID"

// UserIDFrom extracts the authenticated user id placed by AuthMiddleware.
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(contextUserIDKey).(string)
	return id
}

// AuthMiddleware verifies the bearer token and attaches the user id to the
// request context.
func AuthMiddleware(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondWithError(w, http.StatusUnauthorized, "authorization header required")
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := tokens.Parse(parts[1])
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), contextUserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
