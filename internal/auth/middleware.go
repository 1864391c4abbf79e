// Package auth provides HTTP middleware for bearer token authentication.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Option configures the middleware.
type Option func(*options)

type options struct {
	exempt map[string]struct{}
}

// WithExemptPaths lets requests for the given exact paths through without a
// token.
func WithExemptPaths(paths ...string) Option {
	return func(o *options) {
		for _, p := range paths {
			o.exempt[p] = struct{}{}
		}
	}
}

// NewAuthMiddleware returns an HTTP middleware that enforces bearer token
// authentication. If the configured token is empty, authentication is disabled
// and all requests pass through to the next handler unconditionally.
//
// When enabled, the middleware requires the incoming request to carry an
// Authorization header with the exact format:
//
//	Authorization: Bearer <token>
//
// The "Bearer" prefix is case-sensitive and must be followed by exactly one
// space before the token value. Anything else results in a 401 and the next
// handler is never called.
func NewAuthMiddleware(token string, opts ...Option) func(http.Handler) http.Handler {
	o := &options{exempt: map[string]struct{}{}}
	for _, opt := range opts {
		opt(o)
	}
	want := []byte(token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := o.exempt[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			const prefix = "Bearer "
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, prefix) {
				unauthorized(w)
				return
			}

			provided := []byte(authHeader[len(prefix):])
			if len(provided) == 0 || subtle.ConstantTimeCompare(provided, want) != 1 {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="ecoflow-watch"`)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
