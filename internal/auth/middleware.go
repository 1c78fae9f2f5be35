package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// contextKey is a private type for context keys defined in this package.
type contextKey struct{ name string }

// emailContextKey carries the authenticated user's email.
var emailContextKey = &contextKey{"auth_email"}

// EmailFromContext returns the authenticated email, if any.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailContextKey).(string)
	return email, ok
}

// WithEmail returns a context carrying the authenticated email.
// Exposed for tests.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailContextKey, email)
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

// Middleware verifies the bearer token and stores the user's email in the
// request context. Requests without a valid token get 401.
func Middleware(tm *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			email, err := tm.Verify(token)
			if err != nil {
				log.Debug().Err(err).Msg("token verification failed")
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
		})
	}
}

// OptionalMiddleware attaches the user's email when a valid token is
// present but lets unauthenticated requests through. Used on public
// catalog endpoints.
func OptionalMiddleware(tm *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if email, err := tm.Verify(token); err == nil {
					r = r.WithContext(WithEmail(r.Context(), email))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
