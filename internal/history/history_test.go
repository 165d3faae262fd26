package history

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/robalobadob/guesstheflag/internal/database"
)

func newTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := database.Open()
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Exec(`INSERT INTO players (id, username, password_hash, created_at)
	                      VALUES ('p1', 'alice', 'x', '2025-01-01T00:00:00Z')`); err != nil {
		t.Fatal(err)
	}
	return NewStore(db), db
}

func TestFinishBumpsPlayerStats(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, score := range []int{3, 6} {
		id, err := s.Start(ctx, Owner{PlayerID: "p1"}, "normal")
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		if err := s.Finish(ctx, id, "p1", score, 8); err != nil {
			t.Fatalf("Finish: %v", err)
		}
	}
	st, err := s.PlayerStats(ctx, "p1")
	if err != nil {
		t.Fatalf("PlayerStats: %v", err)
	}
	if st.GamesPlayed != 2 || st.TotalCorrect != 9 || st.BestScore != 6 {
		t.Fatalf("stats = %+v, want 2 games, 9 correct, best 6", st)
	}
}

func TestFinishTwiceCountsOnce(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id, err := s.Start(ctx, Owner{PlayerID: "p1"}, "normal")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Finish(ctx, id, "p1", 4, 8); err != nil {
		t.Fatal(err)
	}
	if err := s.Finish(ctx, id, "p1", 4, 8); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("second Finish err = %v, want ErrNotPlaying", err)
	}
	st, _ := s.PlayerStats(ctx, "p1")
	if st.GamesPlayed != 1 {
		t.Fatalf("games played = %d, want 1", st.GamesPlayed)
	}
}

func TestAbandonedGameIsNotFinished(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id, _ := s.Start(ctx, Owner{PlayerID: "p1"}, "normal")
	if err := s.Abandon(ctx, id, 2, 3); err != nil {
		t.Fatal(err)
	}
	if err := s.Finish(ctx, id, "p1", 2, 3); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("Finish after Abandon err = %v", err)
	}
	rows, err := s.Recent(ctx, "p1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Status != StatusAbandoned {
		t.Fatalf("recent = %+v", rows)
	}
}

func TestClaimAnonGames(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id, err := s.Start(ctx, Owner{AnonID: "anon-1"}, "daily")
	if err != nil {
		t.Fatal(err)
	}
	if rows, _ := s.Recent(ctx, "p1", 10); len(rows) != 0 {
		t.Fatalf("player sees %d games before claim", len(rows))
	}
	if err := s.ClaimAnon(ctx, "anon-1", "p1"); err != nil {
		t.Fatal(err)
	}
	rows, err := s.Recent(ctx, "p1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID != id || rows[0].Mode != "daily" {
		t.Fatalf("recent after claim = %+v", rows)
	}
}
