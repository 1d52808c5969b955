// internal/auth/middleware.go
//
// Request authentication middleware.
// Responsibilities:
//   - Resolve a bearer or cookie token to a user that still exists.
//   - Optional: attach the identity when present, never reject.
//   - Require: reject with 401 JSON when the token is missing or invalid.

package auth

import (
	"context"
	"database/sql"
	"net/http"
)

// Identity is placed into the request context by the auth middleware.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ctxKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the authenticated identity, or nil for guests.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}

// identify resolves the request's token to a user that still exists.
func (t Tokens) identify(r *http.Request, db *sql.DB) (*Identity, error) {
	tokenStr := t.FromRequest(r)
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}
	id, err := t.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if _, err := FindUserByID(r.Context(), db, id.ID); err != nil {
		return nil, ErrInvalidToken
	}
	return id, nil
}

// Optional decorates requests with the user identity when a valid token is
// present. It never rejects; used for routes where guests are allowed.
func (t Tokens) Optional(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := t.identify(r, db); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require enforces a valid token for an existing user.
func (t Tokens) Require(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if t.FromRequest(r) == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			id, err := t.identify(r, db)
			if err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
