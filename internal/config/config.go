// internal/config/config.go
//
// Server configuration.
// Responsibilities:
//   - Read settings from the environment (after godotenv in main) with defaults.
//   - Convert millisecond/minute env values into time.Duration.
//
// THEMES_FILE is read by the themes package itself.

package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds server configuration read from the environment.
type Config struct {
	Port           string
	DBPath         string
	LogLevel       string
	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	ClientOrigin   string
	Production     bool
	DailySalt      string
	LiveInterval   time.Duration // websocket push period
	BonusTimeLimit time.Duration // per-card bonus window
	SessionTTL     time.Duration // idle games are dropped after this
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "5175"),
		DBPath:         getEnv("DB_PATH", "./data/memorize.db"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		JWTSecret:      getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiresDays: getInt("JWT_EXPIRES_DAYS", 14),
		CookieName:     getEnv("COOKIE_NAME", "memorize_token"),
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		Production:     os.Getenv("NODE_ENV") == "production",
		DailySalt:      getEnv("DAILY_SALT", "local_dev_salt"),
		LiveInterval:   time.Duration(getInt("LIVE_INTERVAL_MS", 250)) * time.Millisecond,
		BonusTimeLimit: time.Duration(getInt("BONUS_TIME_LIMIT_MS", 6000)) * time.Millisecond,
		SessionTTL:     time.Duration(getInt("SESSION_TTL_MIN", 120)) * time.Minute,
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getInt is getEnv for positive integers; invalid values fall back to def.
func getInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil && n > 0 {
		return n
	}
	return def
}
