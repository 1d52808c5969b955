package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/robalobadob/memorize/assets"
)

func TestOpenAndMigrate(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "data", "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	migrations, err := assets.Migrations()
	if err != nil {
		t.Fatal(err)
	}
	if err := Migrate(db, migrations); err != nil {
		t.Fatalf("first Migrate: %v", err)
	}
	if err := Migrate(db, migrations); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	for _, table := range []string{"users", "games", "daily_results"} {
		var name string
		if err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name); err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
	var applied int
	if err := db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&applied); err != nil {
		t.Fatal(err)
	}
	if applied != 2 {
		t.Errorf("applied %d migrations, want 2", applied)
	}
}

func TestMigrate_FailureIsReported(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "bad.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	fsys := fstest.MapFS{
		"001_ok.sql":  {Data: []byte(`CREATE TABLE t (id INTEGER);`)},
		"002_bad.sql": {Data: []byte(`CREATE TABLEE nope;`)},
	}
	if err := Migrate(db, fsys); err == nil {
		t.Fatal("Migrate with broken script should fail")
	}
	var n int
	_ = db.QueryRow(`SELECT COUNT(1) FROM _migrations WHERE name='002_bad.sql'`).Scan(&n)
	if n != 0 {
		t.Error("failed migration should not be recorded")
	}
}
