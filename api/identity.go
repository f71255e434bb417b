package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/hlog"
)

// ErrUnauthorized is returned when the request carries no verified user.
var ErrUnauthorized = errors.New("user ID not found in request context")

type claimsKey struct{}

// Verifier checks a bearer token and returns its claims.
type Verifier interface {
	Verify(token string) (jwt.MapClaims, error)
}

// WithClaims returns a copy of ctx carrying verified claims.
func WithClaims(ctx context.Context, claims jwt.MapClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// Authenticate verifies the Authorization bearer token and, when valid,
// stores its claims in the request context. It never rejects a request;
// handlers that need a user call GetUserIDFromContext.
func Authenticate(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := v.Verify(token)
			if err != nil {
				hlog.FromRequest(r).Debug().Err(err).Msg("bearer token rejected")
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// GetUserIDFromContext returns the verified "sub" claim.
func GetUserIDFromContext(ctx context.Context) (string, error) {
	claims, ok := ctx.Value(claimsKey{}).(jwt.MapClaims)
	if !ok {
		return "", ErrUnauthorized
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrUnauthorized
	}
	return sub, nil
}

// requireUser answers 401 when there is no verified user.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		fail(w, r, errUnauthorized, nil)
		return "", false
	}
	return userID, true
}
