package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "JWT_EXPIRES_DAYS", "LIVE_INTERVAL_MS", "BONUS_TIME_LIMIT_MS", "NODE_ENV"} {
		t.Setenv(k, "")
	}
	c := Load()
	if c.Port != "5175" {
		t.Errorf("Port %q, want 5175", c.Port)
	}
	if c.JWTExpiresDays != 14 {
		t.Errorf("JWTExpiresDays %d, want 14", c.JWTExpiresDays)
	}
	if c.BonusTimeLimit != 6*time.Second {
		t.Errorf("BonusTimeLimit %v, want 6s", c.BonusTimeLimit)
	}
	if c.Production {
		t.Error("Production should default to false")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LIVE_INTERVAL_MS", "100")
	t.Setenv("JWT_EXPIRES_DAYS", "not-a-number")
	t.Setenv("NODE_ENV", "production")
	c := Load()
	if c.Port != "9000" {
		t.Errorf("Port %q, want 9000", c.Port)
	}
	if c.LiveInterval != 100*time.Millisecond {
		t.Errorf("LiveInterval %v, want 100ms", c.LiveInterval)
	}
	if c.JWTExpiresDays != 14 {
		t.Errorf("JWTExpiresDays %d, want fallback 14", c.JWTExpiresDays)
	}
	if !c.Production {
		t.Error("Production should be true")
	}
}
