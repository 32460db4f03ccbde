package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/nmalik/paysplit/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// callerKey is the context key for the authenticated caller's address.
const callerKey contextKey = "caller_address"

// CallerAddress extracts the authenticated wallet address from the
// context. Returns empty string if not found.
func CallerAddress(ctx context.Context) string {
	addr, _ := ctx.Value(callerKey).(string)
	return addr
}

// WithCaller returns a context carrying the caller address. Exposed for
// tests.
func WithCaller(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, callerKey, address)
}

// RequireAuth validates the bearer token and adds the caller's wallet
// address to the request context.
func RequireAuth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: auth.ErrMissingToken.Error()})
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: auth.ErrInvalidToken.Error()})
				return
			}

			claims, err := jwtManager.Validate(parts[1])
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: auth.ErrInvalidToken.Error()})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), claims.Address)))
		})
	}
}
