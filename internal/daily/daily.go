// internal/daily/daily.go
//
// Deterministic Daily Challenge selection.
// Responsibilities:
//   - Date keys in UTC (YYYY-MM-DD).
//   - HMAC-SHA256(salt, date) based theme index.
//   - A seeded generator so every player gets the same pair count and card order.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// digest is HMAC-SHA256(salt, YYYY-MM-DD).
func digest(date time.Time, salt string) []byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	return h.Sum(nil)
}

// ThemeIndex returns a deterministic catalog index for a date.
func ThemeIndex(date time.Time, salt string, themes int) int {
	if themes <= 0 {
		return 0
	}
	n := binary.BigEndian.Uint64(digest(date, salt)[:8])
	return int(n % uint64(themes))
}

// Rand returns a generator seeded from the date, so every player of the
// day's challenge gets the same pair count and board order.
func Rand(date time.Time, salt string) *rand.Rand {
	sum := digest(date, salt)
	return rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(sum[8:16]),
		binary.BigEndian.Uint64(sum[16:24]),
	))
}
