// internal/daily/store.go
//
// Persistence for daily challenge results.
// Responsibilities:
//   - One result per player (or guest cookie) per date.
//   - Leaderboard: highest score, then fastest, then earliest.
//   - Moving a guest's results to the account they log in to.

package daily

import (
	"context"
	"database/sql"
)

// Result is one player's finished daily challenge.
type Result struct {
	PlayerID  string `json:"playerId"`
	Date      string `json:"date"`
	Score     int    `json:"score"`
	Rounds    int    `json:"rounds"`
	ElapsedMs int    `json:"elapsedMs"`
}

// LBRow is a leaderboard entry. Name is the username, or "guest".
type LBRow struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	ElapsedMs int    `json:"elapsedMs"`
}

// Store persists daily results (one per player per date).
type Store struct{ db *sql.DB }

// NewStore wraps db.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether a result exists for player on date.
func (s *Store) AlreadyPlayed(ctx context.Context, playerID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM daily_results WHERE player_id=? AND date=?`,
		playerID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult stores r; a second result for the same player and date is ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(player_id, date, score, rounds, elapsed_ms)
		 VALUES(?,?,?,?,?)`, r.PlayerID, r.Date, r.Score, r.Rounds, r.ElapsedMs,
	)
	return err
}

// ClaimAnon moves a guest's results to playerID. Dates the player already
// has a result for keep the player's row; the guest's row is dropped.
func (s *Store) ClaimAnon(ctx context.Context, anonID, playerID string) error {
	if anonID == "" || playerID == "" {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE OR IGNORE daily_results SET player_id=? WHERE player_id=?`, playerID, anonID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM daily_results WHERE player_id=?`, anonID); err != nil {
		return err
	}
	return tx.Commit()
}

// Leaderboard returns the top results for date: highest score, then fastest, then earliest.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.player_id, COALESCE(p.username, 'guest'), d.score, d.elapsed_ms
		 FROM daily_results d
		 LEFT JOIN players p ON p.id = d.player_id
		 WHERE d.date=?
		 ORDER BY d.score DESC, d.elapsed_ms ASC, d.created_at ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.PlayerID, &r.Name, &r.Score, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
