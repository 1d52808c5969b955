package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/memorize/internal/game"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	th, err := game.NewTheme("Animals", "purple", []string{"🐶", "🐸"}, 2)
	if err != nil {
		t.Fatal(err)
	}
	return NewSession(game.New(th, func(i int) string { return th.Contents()[i] }), "owner-1")
}

func TestMemoryStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := newSession(t)

	if s.ID == "" {
		t.Fatal("session ID is empty")
	}
	if s.Theme != "Animals" {
		t.Errorf("Theme %q, want Animals", s.Theme)
	}
	if _, err := st.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get before Save: err %v, want ErrNotFound", err)
	}
	if err := st.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	got, err := st.Get(ctx, s.ID)
	if err != nil || got != s {
		t.Fatalf("Get: %v, %v", got, err)
	}
	if err := st.Delete(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete: err %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	old, fresh := newSession(t), newSession(t)
	old.lastActive = time.Now().Add(-2 * time.Hour)
	_ = st.Save(ctx, old)
	_ = st.Save(ctx, fresh)

	n, err := st.Sweep(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("swept %d, want 1", n)
	}
	if _, err := st.Get(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Error("old session should be swept")
	}
	if _, err := st.Get(ctx, fresh.ID); err != nil {
		t.Error("fresh session should survive")
	}
}

func TestSession_DoSerializes(t *testing.T) {
	s := newSession(t)
	var ids []int
	s.Do(func(g *game.Game[string]) {
		for _, c := range g.Cards() {
			ids = append(ids, c.ID)
		}
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.Do(func(g *game.Game[string]) { g.ChooseID(id) })
		}(ids[i%len(ids)])
	}
	wg.Wait()

	s.Do(func(g *game.Game[string]) {
		faceUpUnmatched := 0
		for _, c := range g.Cards() {
			if c.IsFaceUp() && !c.IsMatched() {
				faceUpUnmatched++
			}
		}
		if faceUpUnmatched > 2 {
			t.Errorf("%d face-up unmatched cards, want at most 2", faceUpUnmatched)
		}
	})
}

func TestMemoryStore_SweepKeepsActiveGames(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := newSession(t)
	s.StartedAt = time.Now().Add(-3 * time.Hour)
	s.lastActive = time.Now().Add(-3 * time.Hour)
	_ = st.Save(ctx, s)

	s.View(func(g *game.Game[string]) {})
	if !s.LastActive().Before(time.Now().Add(-time.Hour)) {
		t.Error("View should not count as activity")
	}

	s.Do(func(g *game.Game[string]) { g.ChooseID(0) })
	if n, _ := st.Sweep(ctx, time.Now().Add(-time.Hour)); n != 0 {
		t.Errorf("swept %d, want 0 for a game played just now", n)
	}
	if _, err := st.Get(ctx, s.ID); err != nil {
		t.Error("active session should survive")
	}
}

func TestMemoryStore_Reassign(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	a, b := newSession(t), newSession(t)
	other := NewSession(a.game, "owner-2")
	for _, s := range []*Session{a, b, other} {
		_ = st.Save(ctx, s)
	}

	n, err := st.Reassign(ctx, "owner-1", "user-9")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("reassigned %d, want 2", n)
	}
	if a.Owner() != "user-9" || b.Owner() != "user-9" {
		t.Errorf("owners %q, %q, want user-9", a.Owner(), b.Owner())
	}
	if other.Owner() != "owner-2" {
		t.Errorf("unrelated owner changed to %q", other.Owner())
	}
	if n, _ := st.Reassign(ctx, "", "user-9"); n != 0 {
		t.Errorf("empty from reassigned %d", n)
	}
}
