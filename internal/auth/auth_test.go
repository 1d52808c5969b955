package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/robalobadob/memorize/assets"
	"github.com/robalobadob/memorize/internal/database"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	migrations, _ := assets.Migrations()
	if err := database.Migrate(db, migrations); err != nil {
		t.Fatal(err)
	}
	return db
}

func testTokens() Tokens {
	return Tokens{Secret: []byte("test-secret"), TTL: time.Hour, CookieName: "memorize_token"}
}

func TestValidateSignup(t *testing.T) {
	cases := []struct {
		user, pass string
		ok         bool
	}{
		{"alice", "password1", true},
		{"al", "password1", false},
		{"alice!", "password1", false},
		{"alice", "short", false},
		{"a_b_9", "12345678", true},
	}
	for _, c := range cases {
		err := ValidateSignup(c.user, c.pass)
		if (err == nil) != c.ok {
			t.Errorf("ValidateSignup(%q,%q) err=%v, want ok=%v", c.user, c.pass, err, c.ok)
		}
	}
}

func TestPasswordHash(t *testing.T) {
	h, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(h, "correct horse") {
		t.Error("CheckPassword rejected the right password")
	}
	if CheckPassword(h, "wrong horse") {
		t.Error("CheckPassword accepted the wrong password")
	}
}

func TestTokens_SignParse(t *testing.T) {
	tk := testTokens()
	tok, exp, err := tk.Sign("id-1", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(exp) <= 0 {
		t.Error("expiry should be in the future")
	}
	id, err := tk.Parse(tok)
	if err != nil {
		t.Fatal(err)
	}
	if id.ID != "id-1" || id.Username != "alice" {
		t.Errorf("identity %+v", id)
	}

	other := tk
	other.Secret = []byte("other")
	if _, err := other.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign secret: err %v, want ErrInvalidToken", err)
	}

	expired := tk
	expired.TTL = -time.Minute
	old, _, _ := expired.Sign("id-1", "alice")
	if _, err := tk.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: err %v, want ErrInvalidToken", err)
	}
}

func TestFromRequest(t *testing.T) {
	tk := testTokens()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer abc")
	if got := tk.FromRequest(r); got != "abc" {
		t.Errorf("bearer: %q, want abc", got)
	}
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: tk.CookieName, Value: "xyz"})
	if got := tk.FromRequest(r); got != "xyz" {
		t.Errorf("cookie: %q, want xyz", got)
	}
}

func TestCreateAndFindUser(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	u, err := CreateUser(ctx, db, "  alice ", "password1")
	if err != nil {
		t.Fatal(err)
	}
	if u.Username != "alice" {
		t.Errorf("Username %q, want alice", u.Username)
	}
	if _, err := CreateUser(ctx, db, "ALICE", "password1"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate: err %v, want ErrUsernameTaken", err)
	}

	got, err := FindUserByUsername(ctx, db, "Alice")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID || got.BestScore != nil || got.GamesPlayed != 0 {
		t.Errorf("found %+v", got)
	}
	if !CheckPassword(got.PasswordHash, "password1") {
		t.Error("stored hash does not verify")
	}
	if _, err := FindUserByID(ctx, db, "missing"); err == nil {
		t.Error("FindUserByID(missing) should fail")
	}
}

func TestMiddleware(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	tk := testTokens()
	u, err := CreateUser(ctx, db, "bob", "password1")
	if err != nil {
		t.Fatal(err)
	}
	tok, _, _ := tk.Sign(u.ID, u.Username)
	ghost, _, _ := tk.Sign("deleted-user", "ghost")

	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := FromContext(r.Context()); id != nil {
			_, _ = w.Write([]byte(id.Username))
		}
	})

	do := func(h http.Handler, token string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	req := tk.Require(db)(echo)
	if w := do(req, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("require without token: %d", w.Code)
	}
	if w := do(req, ghost); w.Code != http.StatusUnauthorized {
		t.Errorf("require with unknown user: %d", w.Code)
	}
	if w := do(req, tok); w.Code != http.StatusOK || w.Body.String() != "bob" {
		t.Errorf("require with token: %d %q", w.Code, w.Body.String())
	}

	opt := tk.Optional(db)(echo)
	if w := do(opt, "garbage"); w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("optional with bad token: %d %q", w.Code, w.Body.String())
	}
	if w := do(opt, tok); w.Body.String() != "bob" {
		t.Errorf("optional with token: %q", w.Body.String())
	}
}
