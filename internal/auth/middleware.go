// internal/auth/middleware.go
//
// Request authentication for chi routes.
//   - Optional: attaches the player when a valid token is present.
//   - Require: answers 401 without one.
//   - FromContext / WithUser: access to the player in handlers.

package auth

import (
	"context"
	"net/http"
)

// User is placed into request context by the middleware.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ctxUserKey struct{}

// FromContext returns the authenticated user, or nil for guests.
func FromContext(ctx context.Context) *User {
	u, _ := ctx.Value(ctxUserKey{}).(*User)
	return u
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, u)
}

// authenticate resolves the request's token to a still-existing player.
func (s *Service) authenticate(r *http.Request) (*User, error) {
	tok := s.bearerOrCookie(r)
	if tok == "" {
		return nil, ErrInvalidToken
	}
	id, username, err := s.ParseToken(tok)
	if err != nil {
		return nil, err
	}
	// Ensure player still exists
	if _, err := s.FindByID(r.Context(), id); err != nil {
		return nil, ErrInvalidToken
	}
	return &User{ID: id, Username: username}, nil
}

// Optional decorates requests with the user when a valid token is present.
// It never 401s; used for routes where guests are allowed.
func (s *Service) Optional() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, err := s.authenticate(r); err == nil {
				r = r.WithContext(WithUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require enforces a valid token.
func (s *Service) Require() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.bearerOrCookie(r) == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			u, err := s.authenticate(r)
			if err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}
