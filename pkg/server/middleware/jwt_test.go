package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(t *testing.T, key []byte) (http.Handler, *bool) {
	t.Helper()
	called := false
	auth := NewTokenAuthenticator(key)
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		subject, _ := r.Context().Value(SubjectContextKey).(string)
		w.Write([]byte(subject))
	}))
	return handler, &called
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	key := []byte("test-api-key")
	handler, called := protected(t, key)

	token, err := IssueToken(key, "admin", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/stop", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *called)
	assert.Equal(t, "admin", rec.Body.String())
}

func TestMiddlewareRejections(t *testing.T) {
	key := []byte("test-api-key")

	expired, err := IssueToken(key, "admin", -time.Minute)
	require.NoError(t, err)

	wrongKey, err := IssueToken([]byte("other-key"), "admin", time.Minute)
	require.NoError(t, err)

	// HS256 token without an exp claim
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "admin",
	}).SignedString(key)
	require.NoError(t, err)

	testCases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Token abc", want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not.a.jwt", want: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer " + expired, want: http.StatusUnauthorized},
		{name: "wrong key", header: "Bearer " + wrongKey, want: http.StatusUnauthorized},
		{name: "no expiry claim", header: "Bearer " + noExpiry, want: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler, called := protected(t, key)
			req := httptest.NewRequest("POST", "/stop", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			assert.False(t, *called)
		})
	}
}

func TestMiddlewareWithoutKeyDisablesEndpoint(t *testing.T) {
	handler, called := protected(t, nil)

	token, err := IssueToken([]byte("any"), "admin", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/stop", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, *called)
}
