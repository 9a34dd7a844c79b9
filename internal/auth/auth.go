// Package auth provides bearer-token authentication and per-client rate
// limiting middleware for the API.
package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/actiond/actiond/internal/httputil"
)

// ExtractBearerToken extracts the Bearer token from the Authorization
// header. Returns the token value without the "Bearer " prefix.
func ExtractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing Authorization header")
	}

	// Prefix match is case-insensitive per RFC 6750.
	if !strings.HasPrefix(header, "Bearer ") && !strings.HasPrefix(header, "bearer ") {
		return "", fmt.Errorf("invalid Authorization header format, expected 'Bearer <token>'")
	}

	token := strings.TrimSpace(header[len("Bearer "):])
	if token == "" {
		return "", fmt.Errorf("empty Bearer token")
	}
	return token, nil
}

// VerifyToken compares the provided token with the expected secret in
// constant time so comparison timing leaks nothing about the secret.
func VerifyToken(token, secret string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

// Middleware requires a valid bearer token on every request. An empty
// secret disables authentication.
func Middleware(secret string, next http.Handler) http.Handler {
	if secret == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := ExtractBearerToken(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="actiond"`)
			httputil.WriteError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if !VerifyToken(token, secret) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="actiond"`)
			httputil.WriteError(w, http.StatusUnauthorized, "invalid Bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
