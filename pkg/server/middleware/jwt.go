// Package middleware holds HTTP middleware for the control API.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

// SubjectContextKey carries the authenticated token subject.
const SubjectContextKey contextKey = "subject"

// TokenAuthenticator is middleware that validates bearer tokens signed with
// the configured API key.
type TokenAuthenticator struct {
	key []byte
}

// NewTokenAuthenticator creates a new token authenticator middleware.
func NewTokenAuthenticator(key []byte) *TokenAuthenticator {
	return &TokenAuthenticator{key: key}
}

// IssueToken mints a token for subject, signed with key, expiring after ttl.
func IssueToken(key []byte, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// Middleware returns an HTTP middleware that validates bearer tokens
func (a *TokenAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.key) == 0 {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("No API key configured; mutating endpoints are disabled"))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if len(authHeader) == 0 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Authorization missing"))
			return
		}

		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Malformed authorization header"))
			return
		}

		token, err := jwt.ParseWithClaims(
			tokenStr,
			&jwt.RegisteredClaims{},
			func(token *jwt.Token) (interface{}, error) {
				return a.key, nil
			},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		)
		if err != nil || !token.Valid {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Invalid token"))
			return
		}

		subject, _ := token.Claims.GetSubject()
		ctx := context.WithValue(r.Context(), SubjectContextKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
