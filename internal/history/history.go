// internal/history/history.go
//
// Game history and per-player stats.
// Responsibilities:
//   - One row per played game (a restart opens a new row).
//   - Finishing a game bumps the owner's counters in the same transaction.
//   - Anonymous games can be claimed by a player after signup/login.
//
// Rows live in the process-local database; nothing survives a restart.

package history

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Game statuses.
const (
	StatusPlaying   = "playing"
	StatusFinished  = "finished"
	StatusAbandoned = "abandoned"
)

// Owner identifies who a game belongs to: a registered player or an anonymous cookie.
type Owner struct {
	PlayerID string
	AnonID   string
}

// GameRow is one entry of a player's history.
type GameRow struct {
	ID         string `json:"id"`
	Mode       string `json:"mode"`
	Status     string `json:"status"`
	Score      int    `json:"score"`
	Rounds     int    `json:"rounds"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// Stats are a player's lifetime counters.
type Stats struct {
	PlayerID     string `json:"id"`
	GamesPlayed  int    `json:"gamesPlayed"`
	TotalCorrect int    `json:"totalCorrect"`
	BestScore    int    `json:"bestScore"`
}

// ErrNotPlaying is returned when finishing a game that is not in progress.
var ErrNotPlaying = errors.New("game not in progress")

// Store reads and writes game history.
type Store struct{ db *sql.DB }

// NewStore wraps db.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Start inserts a new in-progress row and returns its ID.
func (s *Store) Start(ctx context.Context, owner Owner, mode string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, player_id, anonymous_id, mode, status, started_at)
		 VALUES (?,?,?,?,?,?)`,
		id, nullable(owner.PlayerID), nullable(owner.AnonID), mode, StatusPlaying, now())
	if err != nil {
		return "", err
	}
	return id, nil
}

// Finish marks a row finished and, for registered players, bumps stats.
// Returns ErrNotPlaying if the row was already finished or abandoned.
func (s *Store) Finish(ctx context.Context, id, playerID string, score, rounds int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE games SET status=?, score=?, rounds=?, finished_at=? WHERE id=? AND status=?`,
		StatusFinished, score, rounds, now(), id, StatusPlaying)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return ErrNotPlaying
	}
	if playerID != "" {
		if err := bumpStats(ctx, tx, playerID, score); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Abandon marks an in-progress row abandoned (restart before the last round).
func (s *Store) Abandon(ctx context.Context, id string, score, rounds int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE games SET status=?, score=?, rounds=?, finished_at=? WHERE id=? AND status=?`,
		StatusAbandoned, score, rounds, now(), id, StatusPlaying)
	return err
}

// bumpStats increments games played and total correct and raises the best score (within tx).
func bumpStats(ctx context.Context, tx *sql.Tx, playerID string, score int) error {
	var gp, total, best int
	row := tx.QueryRowContext(ctx, `SELECT games_played, total_correct, best_score FROM players WHERE id=?`, playerID)
	if err := row.Scan(&gp, &total, &best); err != nil {
		return err
	}
	gp++
	total += score
	if score > best {
		best = score
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE players SET games_played=?, total_correct=?, best_score=? WHERE id=?`,
		gp, total, best, playerID)
	return err
}

// ClaimAnon transfers anonymous games to a player account.
func (s *Store) ClaimAnon(ctx context.Context, anonID, playerID string) error {
	if anonID == "" || playerID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE games SET player_id=?, anonymous_id=NULL WHERE anonymous_id=?`, playerID, anonID)
	return err
}

// Recent returns a player's latest games, newest first.
func (s *Store) Recent(ctx context.Context, playerID string, limit int) ([]GameRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, status, score, rounds, started_at, COALESCE(finished_at,'')
		 FROM games WHERE player_id=? ORDER BY started_at DESC, rowid DESC LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GameRow{}
	for rows.Next() {
		var g GameRow
		if err := rows.Scan(&g.ID, &g.Mode, &g.Status, &g.Score, &g.Rounds, &g.StartedAt, &g.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// PlayerStats loads a player's counters.
func (s *Store) PlayerStats(ctx context.Context, playerID string) (Stats, error) {
	st := Stats{PlayerID: playerID}
	err := s.db.QueryRowContext(ctx,
		`SELECT games_played, total_correct, best_score FROM players WHERE id=?`, playerID,
	).Scan(&st.GamesPlayed, &st.TotalCorrect, &st.BestScore)
	return st, err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }
