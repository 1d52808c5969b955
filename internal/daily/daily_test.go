package daily

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/robalobadob/memorize/assets"
	"github.com/robalobadob/memorize/internal/database"
)

func TestDateKey(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	got := DateKey(time.Date(2024, 3, 2, 5, 0, 0, 0, loc))
	if got != "2024-03-01" {
		t.Errorf("DateKey %q, want 2024-03-01", got)
	}
}

func TestThemeIndexDeterministic(t *testing.T) {
	day := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	later := day.Add(10 * time.Hour)
	if ThemeIndex(day, "salt", 6) != ThemeIndex(later, "salt", 6) {
		t.Error("same day should give the same index")
	}
	for i := 0; i < 30; i++ {
		idx := ThemeIndex(day.AddDate(0, 0, i), "salt", 6)
		if idx < 0 || idx >= 6 {
			t.Fatalf("index %d out of range", idx)
		}
	}
	if ThemeIndex(day, "salt", 0) != 0 {
		t.Error("empty catalog should give index 0")
	}
}

func TestRandDeterministic(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	a, b := Rand(day, "salt"), Rand(day.Add(time.Hour), "salt")
	for i := 0; i < 10; i++ {
		if x, y := a.Uint64(), b.Uint64(); x != y {
			t.Fatalf("draw %d differs: %d vs %d", i, x, y)
		}
	}
	if Rand(day, "salt").Uint64() == Rand(day, "pepper").Uint64() {
		t.Error("different salts should give different streams")
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(filepath.Join(t.TempDir(), "daily.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	migrations, _ := assets.Migrations()
	if err := database.Migrate(db, migrations); err != nil {
		t.Fatal(err)
	}

	s := NewStore(db)
	date := "2024-03-01"
	played, err := s.AlreadyPlayed(ctx, "u1", date)
	if err != nil || played {
		t.Fatalf("AlreadyPlayed %v, %v", played, err)
	}

	results := []Result{
		{UserID: "u1", Date: date, Theme: "Flags", Score: 4, Flips: 10, ElapsedMs: 9000},
		{UserID: "u2", Date: date, Theme: "Flags", Score: 6, Flips: 8, ElapsedMs: 12000},
		{UserID: "u3", Date: date, Theme: "Flags", Score: 4, Flips: 8, ElapsedMs: 7000},
		{UserID: "u1", Date: date, Theme: "Flags", Score: 10, Flips: 4, ElapsedMs: 1},
	}
	for _, r := range results {
		if err := s.InsertResult(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	played, err = s.AlreadyPlayed(ctx, "u1", date)
	if err != nil || !played {
		t.Fatalf("AlreadyPlayed %v, %v", played, err)
	}

	rows, err := s.Leaderboard(ctx, date, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"u2", "u3", "u1"}
	if len(rows) != len(want) {
		t.Fatalf("rows %v, want users %v", rows, want)
	}
	for i, u := range want {
		if rows[i].UserID != u {
			t.Errorf("rank %d: %q, want %q", i, rows[i].UserID, u)
		}
	}
	if rows[2].Score != 4 {
		t.Errorf("duplicate result overwrote the first: score %d", rows[2].Score)
	}
}
