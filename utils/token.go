package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// TokenVerifier checks bearer tokens and returns their claims.
type TokenVerifier struct {
	keyfunc jwt.Keyfunc
	methods []string
	close   func()
}

// NewHMACVerifier verifies HS256 tokens signed with secret.
func NewHMACVerifier(secret []byte) *TokenVerifier {
	return &TokenVerifier{
		keyfunc: func(*jwt.Token) (interface{}, error) { return secret, nil },
		methods: []string{jwt.SigningMethodHS256.Alg()},
		close:   func() {},
	}
}

// NewJWKSVerifier verifies RS256 tokens against the key set published at
// jwksURL, e.g. a Cognito user pool's /.well-known/jwks.json. Keys are
// refreshed in the background until ctx is done or Close is called.
func NewJWKSVerifier(ctx context.Context, jwksURL string, logger zerolog.Logger) (*TokenVerifier, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Warn().Err(err).Str("jwks_url", jwksURL).Msg("jwks refresh failed")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load jwks from %s: %w", jwksURL, err)
	}
	return &TokenVerifier{
		keyfunc: jwks.Keyfunc,
		methods: []string{jwt.SigningMethodRS256.Alg()},
		close:   jwks.EndBackground,
	}, nil
}

// Verify parses tokenString, checks its signature and time claims and
// returns the claims.
func (v *TokenVerifier) Verify(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyfunc, jwt.WithValidMethods(v.methods))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	return claims, nil
}

// Close stops background key refresh, if any.
func (v *TokenVerifier) Close() {
	v.close()
}

// GenerateToken signs an HS256 token for subject, valid for ttl. It backs
// cmd/devtoken and the tests; production tokens come from the OAuth provider.
func GenerateToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("JWT_SECRET is not set")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
