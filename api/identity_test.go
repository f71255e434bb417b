package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raushankrgupta/fitly-api/utils"
)

func TestGetUserIDFromContext(t *testing.T) {
	cases := []struct {
		name   string
		ctx    context.Context
		want   string
		failed bool
	}{
		{"no claims", context.Background(), "", true},
		{"no sub", WithClaims(context.Background(), jwt.MapClaims{"email": "a@b.c"}), "", true},
		{"sub not a string", WithClaims(context.Background(), jwt.MapClaims{"sub": 42}), "", true},
		{"empty sub", WithClaims(context.Background(), jwt.MapClaims{"sub": ""}), "", true},
		{"sub", WithClaims(context.Background(), jwt.MapClaims{"sub": "user-1"}), "user-1", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := GetUserIDFromContext(tc.ctx)
			if tc.failed {
				assert.ErrorIs(t, err, ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	var seen string
	var seenErr error
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, seenErr = GetUserIDFromContext(r.Context())
	})
	mw := Authenticate(utils.NewHMACVerifier(testSecret))(next)

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"valid token", bearer(t, "user-1"), "user-1"},
		{"no header", "", ""},
		{"not bearer", "Basic dXNlcjpwYXNz", ""},
		{"bad token", "Bearer abc.def.ghi", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen, seenErr = "", nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			mw.ServeHTTP(httptest.NewRecorder(), req)

			if tc.want == "" {
				assert.ErrorIs(t, seenErr, ErrUnauthorized)
				return
			}
			require.NoError(t, seenErr)
			assert.Equal(t, tc.want, seen)
		})
	}
}
