package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/tair/course-checkout/pkg/auth"
	"github.com/tair/course-checkout/pkg/logger"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenValidator validates bearer tokens
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// AuthMiddleware validates the identity provider's bearer token
func AuthMiddleware(validator TokenValidator) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondJSON(w, http.StatusUnauthorized, Response{Success: false, Error: "Authorization header required"})
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondJSON(w, http.StatusUnauthorized, Response{Success: false, Error: "Invalid authorization header format"})
				return
			}

			claims, err := validator.Validate(parts[1])
			if err != nil {
				logger.Debug(r.Context()).Err(err).Msg("Token rejected")
				respondJSON(w, http.StatusUnauthorized, Response{Success: false, Error: "Invalid token"})
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// AdminMiddleware requires an authenticated admin
func AdminMiddleware(validator TokenValidator) func(http.HandlerFunc) http.HandlerFunc {
	authenticate := AuthMiddleware(validator)
	return func(next http.HandlerFunc) http.HandlerFunc {
		return authenticate(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := claimsFrom(r.Context())
			if !ok || !claims.IsAdmin {
				respondJSON(w, http.StatusForbidden, Response{Success: false, Error: "Admin access required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func claimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}
