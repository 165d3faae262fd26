// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes two endpoints under /daily:
//   - POST /daily/new         → start today's game (creates or reuses the session)
//   - GET  /daily/leaderboard → top 20 results for today (or ?date=YYYY-MM-DD)
//
// Guesses and "continue" go through /game/guess and /game/continue.
// Each player can finish the daily game once per date (enforced by the DB
// unique key and the in-memory session map). Every player sees the same
// rounds because the engine RNG is seeded from the date.

package httpserver

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guesstheflag/internal/daily"
	"github.com/robalobadob/guesstheflag/internal/quiz"
	"github.com/robalobadob/guesstheflag/internal/store"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	sessions map[string]string // owner|date → game ID
	mu       sync.Mutex        // guards sessions
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router, ds *daily.Store) {
	s.daily = &dailyServer{
		srv:      s,
		store:    ds,
		salt:     s.cfg.DailySalt,
		sessions: make(map[string]string),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", s.daily.handleNew)
		r.Get("/leaderboard", s.daily.handleLeaderboard)
	})
}

// newRes is returned by /daily/new.
type newRes struct {
	GameID string     `json:"gameId"`
	Date   string     `json:"date"`
	Played bool       `json:"played"`
	View   *quiz.View `json:"view,omitempty"`
}

// handleNew creates or reuses today's session.
//   - If a result is already stored for today → Played=true, no game.
//   - Otherwise reuse the in-memory session or create a seeded one.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	playerID, anonID := d.srv.owner(w, r)
	ownerKey := playerID
	if ownerKey == "" {
		ownerKey = anonID
	}
	now := d.srv.now()
	date := daily.DateKey(now)

	played, err := d.store.AlreadyPlayed(r.Context(), ownerKey, date)
	if err != nil {
		log.Warn().Err(err).Msg("daily already played")
	}

	key := ownerKey + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()
	if played {
		// the finished session is no longer reachable from here
		if id, ok := d.sessions[key]; ok {
			_ = d.srv.store.Delete(r.Context(), id)
			delete(d.sessions, key)
		}
		writeJSON(w, newRes{Date: date, Played: true})
		return
	}
	if id, ok := d.sessions[key]; ok {
		if sess, err := d.srv.store.Get(r.Context(), id); err == nil {
			v := sess.Engine.View()
			writeJSON(w, newRes{GameID: id, Date: date, View: &v})
			return
		}
	}

	seed := daily.Seed(now, d.salt)
	sess, err := d.srv.newSession(w, r, store.ModeDaily, date, quiz.WithRand(quiz.NewSeededRNG(seed)))
	if err != nil {
		log.Error().Err(err).Msg("new daily game")
		writeError(w, http.StatusInternalServerError, "create_failed")
		return
	}
	d.sessions[key] = sess.ID()

	v := sess.Engine.View()
	writeJSON(w, newRes{GameID: sess.ID(), Date: date, View: &v})
}

// recordResult stores the finished daily game (best effort).
func (d *dailyServer) recordResult(ctx context.Context, sess *store.Session, score, rounds int) {
	elapsed := int(d.srv.now().Sub(sess.Engine.StartedAt()).Milliseconds())
	if elapsed < 0 {
		elapsed = 0
	}
	err := d.store.InsertResult(ctx, daily.Result{
		PlayerID:  sess.OwnerKey(),
		Date:      sess.Date,
		Score:     score,
		Rounds:    rounds,
		ElapsedMs: elapsed,
	})
	if err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID()).Msg("insert daily result")
	}
}

// adopt moves a guest's daily results and running daily games to playerID.
// If the player already has a game for a date, the guest's key is dropped.
func (d *dailyServer) adopt(ctx context.Context, anonID, playerID string) {
	if err := d.store.ClaimAnon(ctx, anonID, playerID); err != nil {
		log.Warn().Err(err).Str("player", playerID).Msg("claim guest daily results")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, id := range d.sessions {
		date, ok := strings.CutPrefix(key, anonID+"|")
		if !ok {
			continue
		}
		delete(d.sessions, key)
		if _, taken := d.sessions[playerID+"|"+date]; !taken {
			d.sessions[playerID+"|"+date] = id
		}
	}
}

// forget drops map entries for sessions that left the store.
func (d *dailyServer) forget(ids []string) {
	gone := make(map[string]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, id := range d.sessions {
		if gone[id] {
			delete(d.sessions, key)
		}
	}
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.srv.now())
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		log.Error().Err(err).Msg("daily leaderboard")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, lbRes{Date: date, Top: rows})
}
