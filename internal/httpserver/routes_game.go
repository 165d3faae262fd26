// internal/httpserver/routes_game.go
//
// Game endpoints, one per rendering intent:
//   - POST /game/new       → start a game, returns the first round
//   - GET  /game/{id}      → current view (polling)
//   - POST /game/guess     → submit a tap; responds once the feedback delay elapses
//   - POST /game/continue  → next round, or game over after the last round
//   - POST /game/restart   → back to round 1 with score 0
//
// Daily games use the same guess/continue endpoints; restart is refused for them.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guesstheflag/internal/quiz"
	"github.com/robalobadob/guesstheflag/internal/store"
)

// mountGame registers all /game routes.
func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNewGame)
		r.Get("/{id}", s.handleGetGame)
		r.Post("/guess", s.handleGuess)
		r.Post("/continue", s.handleContinue)
		r.Post("/restart", s.handleRestart)
	})
}

// gameReq identifies the game an intent applies to.
type gameReq struct {
	GameID string `json:"gameId"`
}

// guessReq is the POST /game/guess payload. Index is a pointer so a missing
// field is told apart from slot 0.
type guessReq struct {
	GameID string `json:"gameId"`
	Index  *int   `json:"index"`
}

type guessRes struct {
	Feedback quiz.Feedback `json:"feedback"`
	View     quiz.View     `json:"view"`
}

// handleNewGame creates a normal-mode game for the requester.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	sess, err := s.newSession(w, r, store.ModeNormal, "")
	if err != nil {
		log.Error().Err(err).Msg("new game")
		writeError(w, http.StatusInternalServerError, "create_failed")
		return
	}
	writeJSON(w, sess.Engine.View())
}

// handleGetGame returns the current view.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, sess.Engine.View())
}

// handleGuess submits a guess and waits for its resolution.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Index == nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess, ok := s.ownedSession(w, r, req.GameID)
	if !ok {
		return
	}
	fb, err := sess.Engine.SubmitGuess(r.Context(), *req.Index)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, guessRes{Feedback: fb, View: sess.Engine.View()})
}

// handleContinue moves past the feedback of the last guess.
func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.decodeGame(w, r)
	if !ok {
		return
	}
	if err := sess.Engine.Advance(); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, sess.Engine.View())
}

// handleRestart resets the game and opens a new history row.
// An unfinished run is recorded as abandoned.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.decodeGame(w, r)
	if !ok {
		return
	}
	if sess.Mode == store.ModeDaily {
		writeError(w, http.StatusConflict, "daily_locked")
		return
	}
	v := sess.Engine.ResetGame()

	// finished rows are left alone; Abandon only touches in-progress ones
	if prev := sess.RecordID(); prev != "" {
		if err := s.history.Abandon(r.Context(), prev, v.Score, v.Round-1); err != nil {
			log.Warn().Err(err).Str("gameId", sess.ID()).Msg("abandon history row")
		}
	}
	s.startRecord(r.Context(), sess)
	writeJSON(w, sess.Engine.View())
}

// decodeGame reads a gameReq body and loads the owned session.
func (s *Server) decodeGame(w http.ResponseWriter, r *http.Request) (*store.Session, bool) {
	var req gameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return nil, false
	}
	return s.ownedSession(w, r, req.GameID)
}

// writeEngineError maps engine errors to HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	var invalid *quiz.InvalidIndexError
	switch {
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, "invalid_index")
	case errors.Is(err, quiz.ErrGuessPending):
		writeError(w, http.StatusConflict, "guess_pending")
	case errors.Is(err, quiz.ErrNotAwaitingGuess):
		writeError(w, http.StatusConflict, "not_awaiting_guess")
	case errors.Is(err, quiz.ErrNoFeedback):
		writeError(w, http.StatusConflict, "no_feedback")
	case errors.Is(err, quiz.ErrRoundAbandoned):
		writeError(w, http.StatusConflict, "round_abandoned")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusGatewayTimeout, "timeout")
	default:
		log.Error().Err(err).Msg("engine")
		writeError(w, http.StatusInternalServerError, "internal")
	}
}
