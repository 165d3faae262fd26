// internal/httpserver/routes_auth.go
//
// Account endpoints and the per-player views that need them:
//   - POST /auth/signup, /auth/login → set the auth cookie, claim guest history
//   - POST /auth/logout              → clear the auth cookie
//   - GET  /auth/me                  → current player (gated)
//   - GET  /stats/me                 → lifetime counters (gated)
//   - GET  /games/mine               → recent games (gated)
//
// Logging in adopts the guest's running games, history rows and daily
// results, so a game started as a guest can be finished on the account.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guesstheflag/internal/auth"
)

// credentialsReq is the signup/login payload.
type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mountAuthRoutes registers authentication + gated routes (/auth/*, /stats/me, /games/mine).
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)

	gated := s.r.With(s.auth.Require())
	gated.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, auth.FromContext(r.Context()))
	})
	gated.Get("/stats/me", s.handleStats)
	gated.Get("/games/mine", s.handleMyGames)
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsReq, bool) {
	var body credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return body, false
	}
	return body, true
}

// handleSignup creates an account, sets the cookie, and claims guest history.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	p, err := s.auth.Signup(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, auth.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "username_taken")
		return
	case errors.Is(err, auth.ErrInvalidSignup):
		writeError(w, http.StatusBadRequest, "invalid_signup")
		return
	case err != nil:
		log.Error().Err(err).Msg("signup")
		writeError(w, http.StatusInternalServerError, "signup_failed")
		return
	}
	s.loggedIn(w, r, p)
}

// handleLogin checks credentials, sets the cookie, and claims guest history.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	p, err := s.auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	s.loggedIn(w, r, p)
}

// loggedIn finishes signup/login for p.
func (s *Server) loggedIn(w http.ResponseWriter, r *http.Request, p *auth.Player) {
	tok, exp, err := s.auth.SignToken(p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.auth.SetCookie(w, tok, exp)
	if c, err := r.Cookie(auth.AnonCookieName); err == nil && c.Value != "" {
		s.adoptGuest(r.Context(), c.Value, p.ID)
	}
	writeJSON(w, p)
}

// adoptGuest hands everything the guest cookie owns to playerID. Live
// sessions move first so games finishing meanwhile credit the player.
func (s *Server) adoptGuest(ctx context.Context, anonID, playerID string) {
	adopted, err := s.store.AdoptGuest(ctx, anonID, playerID)
	if err != nil {
		log.Warn().Err(err).Str("player", playerID).Msg("adopt guest sessions")
	}
	if err := s.history.ClaimAnon(ctx, anonID, playerID); err != nil {
		log.Warn().Err(err).Str("player", playerID).Msg("claim guest history")
	}
	s.daily.adopt(ctx, anonID, playerID)
	if len(adopted) > 0 {
		log.Debug().Str("player", playerID).Int("sessions", len(adopted)).Msg("adopted guest games")
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.ClearCookie(w)
	writeJSON(w, map[string]bool{"ok": true})
}

// handleStats returns the player's lifetime counters.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	st, err := s.history.PlayerStats(r.Context(), me.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, st)
}

// handleMyGames returns the player's 20 most recent games.
func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	rows, err := s.history.Recent(r.Context(), me.ID, 20)
	if err != nil {
		log.Error().Err(err).Msg("recent games")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, rows)
}
