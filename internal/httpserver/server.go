// internal/httpserver/server.go
//
// HTTP server wiring for the Guess the Flag backend. The server is the
// rendering collaborator's view of the quiz engine: it forwards intents
// (guess, continue, restart) and returns display data.
// Responsibilities:
//   - Router + middleware (request IDs, access logs, panic recovery, timeouts, JSON, CORS).
//   - Public endpoints: "/", "/health", "/countries".
//   - Game endpoints (optional auth): mounted under /game.
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - Guests are identified by an anonymous cookie; sessions are only
//     visible to their owner.
//   - Finished games are recorded through an engine observer, so history is
//     written whether or not the client is still waiting.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guesstheflag/internal/auth"
	"github.com/robalobadob/guesstheflag/internal/config"
	"github.com/robalobadob/guesstheflag/internal/countries"
	"github.com/robalobadob/guesstheflag/internal/daily"
	"github.com/robalobadob/guesstheflag/internal/history"
	"github.com/robalobadob/guesstheflag/internal/quiz"
	"github.com/robalobadob/guesstheflag/internal/store"
)

// Options bundles the server dependencies.
type Options struct {
	Config  config.Config
	Catalog *countries.Catalog
	Store   store.Store
	DB      *sql.DB

	// Optional; tests override these.
	Now       func() time.Time
	Scheduler quiz.Scheduler
}

// Server bundles router, session store and persistence.
type Server struct {
	r       *chi.Mux
	cfg     config.Config
	catalog *countries.Catalog
	store   store.Store
	auth    *auth.Service
	history *history.Store
	daily   *dailyServer
	now     func() time.Time
	sched   quiz.Scheduler
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		cfg:     opts.Config,
		catalog: opts.Catalog,
		store:   opts.Store,
		history: history.NewStore(opts.DB),
		now:     opts.Now,
		sched:   opts.Scheduler,
		auth: auth.New(opts.DB, auth.Config{
			Secret:      opts.Config.JWTSecret,
			ExpiresDays: opts.Config.JWTExpiresDays,
			CookieName:  opts.Config.CookieName,
			Secure:      opts.Config.Production,
		}),
	}
	if s.now == nil {
		s.now = time.Now
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))     // request-scoped logger
	s.r.Use(requestIDLogger)                 // tag it with the request ID
	s.r.Use(hlog.AccessHandler(accessLog))   // one line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(s.cors)                          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"service":"guess-the-flag","endpoints":["/health","/countries","POST /game/new","POST /game/guess","/daily/*","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/countries", s.handleCountries)

	optional := s.r.With(s.auth.Optional())
	s.mountGame(optional)
	s.mountDaily(optional, daily.NewStore(opts.DB))
	s.mountAuthRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	return s
}

// Start begins serving HTTP on addr and sweeps idle sessions while it runs.
func (s *Server) Start(addr string) error {
	stop := make(chan struct{})
	defer close(stop)
	go s.sweepLoop(stop)
	return http.ListenAndServe(addr, s.r)
}

// sweepLoop evicts idle sessions every minute until stop is closed.
func (s *Server) sweepLoop(stop <-chan struct{}) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			s.SweepIdle(context.Background())
		}
	}
}

// SweepIdle drops sessions unused for longer than the configured TTL.
func (s *Server) SweepIdle(ctx context.Context) int {
	gone := s.store.Sweep(ctx, time.Now().Add(-s.cfg.SessionTTL))
	if len(gone) > 0 {
		s.daily.forget(gone)
		log.Debug().Int("sessions", len(gone)).Msg("swept idle sessions")
	}
	return len(gone)
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDLogger adds chi's request ID to the request logger.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
}

// ------------------------------ helpers -------------------------------------

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error":code} with status.
func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + code + `"}` + "\n"))
}

// owner returns the requester's identity: player ID when logged in, else anon cookie.
func (s *Server) owner(w http.ResponseWriter, r *http.Request) (playerID, anonID string) {
	if me := auth.FromContext(r.Context()); me != nil {
		return me.ID, ""
	}
	return "", s.auth.AnonID(w, r)
}

// ownedSession loads a session and checks that the requester owns it.
// Sessions owned by someone else look exactly like missing ones.
func (s *Server) ownedSession(w http.ResponseWriter, r *http.Request, id string) (*store.Session, bool) {
	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	if !sess.OwnedBy(s.owner(w, r)) {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	return sess, true
}

// newSession builds an engine for the catalog and registers it.
// date is only set for daily games.
func (s *Server) newSession(w http.ResponseWriter, r *http.Request, mode, date string, extra ...quiz.Option) (*store.Session, error) {
	ctx := r.Context()
	opts := []quiz.Option{
		quiz.WithRoundCap(s.cfg.RoundCap),
		quiz.WithDelay(s.cfg.FeedbackDelay),
		quiz.WithDisplayNames(s.catalog.DisplayName),
		quiz.WithClock(s.now),
	}
	if s.sched != nil {
		opts = append(opts, quiz.WithScheduler(s.sched))
	}
	e, err := quiz.New(s.catalog.IDs(), append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	playerID, anonID := s.owner(w, r)
	sess := store.NewSession(e, mode, playerID, anonID, date)
	s.startRecord(ctx, sess)
	e.Subscribe(s.observer(sess))
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// startRecord opens a history row for the session's current run (best effort).
func (s *Server) startRecord(ctx context.Context, sess *store.Session) {
	playerID, anonID := sess.Owner()
	id, err := s.history.Start(ctx, history.Owner{PlayerID: playerID, AnonID: anonID}, sess.Mode)
	if err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID()).Msg("start history row")
		return
	}
	sess.SetRecordID(id)
}

// observer logs engine transitions and records finished games.
func (s *Server) observer(sess *store.Session) func(quiz.View) {
	return func(v quiz.View) {
		log.Debug().
			Str("gameId", v.GameID).
			Str("phase", string(v.Phase)).
			Int("round", v.Round).
			Int("score", v.Score).
			Bool("pending", v.Pending).
			Msg("game state")
		if v.Phase == quiz.PhaseShowingFeedback && v.Feedback != nil && v.Feedback.GameOver {
			s.recordFinished(sess, v)
		}
	}
}

// recordFinished persists the end of a run: history, stats, daily result.
// Runs on the engine's timer goroutine, so it uses its own context.
func (s *Server) recordFinished(sess *store.Session, v quiz.View) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rounds := v.Round - 1
	if id := sess.RecordID(); id != "" {
		playerID, _ := sess.Owner()
		if err := s.history.Finish(ctx, id, playerID, v.Score, rounds); err != nil {
			log.Warn().Err(err).Str("gameId", v.GameID).Msg("finish history row")
		}
	}
	if sess.Mode == store.ModeDaily {
		s.daily.recordResult(ctx, sess, v.Score, rounds)
	}
	log.Info().Str("gameId", v.GameID).Str("mode", sess.Mode).Int("score", v.Score).Msg("game finished")
}

// handleCountries lists the catalog for the client's asset lookup.
func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	type country struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	out := make([]country, 0, s.catalog.Len())
	for _, id := range s.catalog.IDs() {
		out = append(out, country{ID: id, Name: s.catalog.DisplayName(id)})
	}
	writeJSON(w, out)
}
