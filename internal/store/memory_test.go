package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/guesstheflag/internal/quiz"
)

func newSession(t *testing.T, id string) *Session {
	t.Helper()
	e, err := quiz.New([]string{"France", "Spain", "Italy"}, quiz.WithID(id))
	if err != nil {
		t.Fatal(err)
	}
	return NewSession(e, ModeNormal, "", "anon", "")
}

func TestSaveGetDelete(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if _, err := st.Get(ctx, "g1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing err = %v", err)
	}
	s := newSession(t, "g1")
	if err := st.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	got, err := st.Get(ctx, "g1")
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if st.Len() != 1 {
		t.Fatalf("Len = %d", st.Len())
	}
	_ = st.Delete(ctx, "g1")
	_ = st.Delete(ctx, "g1")
	if st.Len() != 0 {
		t.Fatalf("Len after delete = %d", st.Len())
	}
}

func TestConcurrentSaves(t *testing.T) {
	st := NewMemoryStore()
	sessions := make([]*Session, 50)
	for i := range sessions {
		sessions[i] = newSession(t, fmt.Sprintf("g%d", i))
	}
	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			_ = st.Save(context.Background(), s)
			_, _ = st.Get(context.Background(), s.ID())
		}(s)
	}
	wg.Wait()
	if st.Len() != 50 {
		t.Fatalf("Len = %d, want 50", st.Len())
	}
}

func TestSessionRecordIDAndOwner(t *testing.T) {
	s := newSession(t, "g1")
	if prev := s.SetRecordID("r1"); prev != "" {
		t.Fatalf("prev = %q", prev)
	}
	if prev := s.SetRecordID("r2"); prev != "r1" {
		t.Fatalf("prev = %q, want r1", prev)
	}
	if s.RecordID() != "r2" {
		t.Fatalf("RecordID = %q", s.RecordID())
	}
	if s.OwnerKey() != "anon" {
		t.Fatalf("OwnerKey = %q", s.OwnerKey())
	}
	if !s.OwnedBy("", "anon") || s.OwnedBy("", "other") || s.OwnedBy("p1", "") {
		t.Fatalf("guest ownership wrong")
	}
}

func TestAdoptGuestMovesOnlyThatGuest(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	mine := newSession(t, "g1")
	e, _ := quiz.New([]string{"France", "Spain", "Italy"}, quiz.WithID("g2"))
	other := NewSession(e, ModeNormal, "", "someone-else", "")
	e, _ = quiz.New([]string{"France", "Spain", "Italy"}, quiz.WithID("g3"))
	player := NewSession(e, ModeNormal, "p2", "", "")
	for _, s := range []*Session{mine, other, player} {
		_ = st.Save(ctx, s)
	}

	adopted, err := st.AdoptGuest(ctx, "anon", "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(adopted) != 1 || adopted[0] != mine {
		t.Fatalf("adopted = %v, want only g1", adopted)
	}
	if pid, aid := mine.Owner(); pid != "p1" || aid != "anon" {
		t.Fatalf("Owner() = %q, %q", pid, aid)
	}
	if !mine.OwnedBy("p1", "") || mine.OwnedBy("", "anon") {
		t.Fatalf("adopted session ownership wrong")
	}
	if mine.OwnerKey() != "p1" {
		t.Fatalf("OwnerKey = %q, want p1", mine.OwnerKey())
	}
	if pid, _ := other.Owner(); pid != "" {
		t.Fatalf("other guest adopted by %q", pid)
	}

	// adopting again is a no-op
	if again, _ := st.AdoptGuest(ctx, "anon", "p9"); len(again) != 0 {
		t.Fatalf("second adopt = %v", again)
	}
}

func TestSweepDropsIdleSessions(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	idle, fresh := newSession(t, "idle"), newSession(t, "fresh")
	_ = st.Save(ctx, idle)
	_ = st.Save(ctx, fresh)
	idle.Touch(now.Add(-2 * time.Hour))
	fresh.Touch(now)

	gone := st.Sweep(ctx, now.Add(-time.Hour))
	if len(gone) != 1 || gone[0] != "idle" {
		t.Fatalf("Sweep = %v, want [idle]", gone)
	}
	if _, err := st.Get(ctx, "idle"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("idle session still stored: %v", err)
	}
	if _, err := st.Get(ctx, "fresh"); err != nil {
		t.Fatalf("fresh session swept: %v", err)
	}
}
