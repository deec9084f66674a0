// internal/config/config.go
//
// Server configuration from the environment.
// Variables (defaults in brackets):
//   PORT [5175], LOG_LEVEL [info], DB_PATH [./data/app.db],
//   JWT_SECRET [dev_secret_change_me], JWT_EXPIRES_DAYS [14],
//   COOKIE_NAME [puzzli_token], CLIENT_ORIGIN [http://localhost:5173],
//   NODE_ENV [development], DAILY_SALT [puzzli], EXERCISES_DIR [embedded],
//   SNAP_THRESHOLD [75], SNAP_LEGACY_ROLE [false].
//
// In production a real JWT_SECRET is mandatory.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/puzzli/internal/puzzle"
)

const devSecret = "dev_secret_change_me"

// Config is the resolved server configuration.
type Config struct {
	Port         string
	LogLevel     zerolog.Level
	DBPath       string
	JWTSecret    string
	JWTTTL       time.Duration
	CookieName   string
	ClientOrigin string
	Env          string
	DailySalt    string
	ExercisesDir string // "" = embedded defaults

	SnapThreshold  float64
	SnapLegacyRole bool
}

// Production reports NODE_ENV=production; cookies become Secure/SameSite=None.
func (c Config) Production() bool { return c.Env == "production" }

// SnapOptions converts the snap settings for game.WithSnapOptions.
func (c Config) SnapOptions() []puzzle.SnapOption {
	return []puzzle.SnapOption{
		puzzle.WithThreshold(c.SnapThreshold),
		puzzle.WithLegacyConnectionRole(c.SnapLegacyRole),
	}
}

// Load reads the environment and validates the result. Every problem is
// reported, not just the first.
func Load() (Config, error) {
	c := Config{
		Port:         getEnv("PORT", "5175"),
		DBPath:       getEnv("DB_PATH", "./data/app.db"),
		JWTSecret:    getEnv("JWT_SECRET", devSecret),
		CookieName:   getEnv("COOKIE_NAME", "puzzli_token"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		Env:          getEnv("NODE_ENV", "development"),
		DailySalt:    getEnv("DAILY_SALT", "puzzli"),
		ExercisesDir: os.Getenv("EXERCISES_DIR"),
	}

	var errs []error
	lvl, err := zerolog.ParseLevel(strings.ToLower(getEnv("LOG_LEVEL", "info")))
	if err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	c.LogLevel = lvl

	days, err := strconv.Atoi(getEnv("JWT_EXPIRES_DAYS", "14"))
	if err != nil || days <= 0 {
		errs = append(errs, fmt.Errorf("JWT_EXPIRES_DAYS: want a positive integer, got %q", os.Getenv("JWT_EXPIRES_DAYS")))
	}
	c.JWTTTL = time.Duration(days) * 24 * time.Hour

	c.SnapThreshold, err = strconv.ParseFloat(getEnv("SNAP_THRESHOLD", "75"), 64)
	if err != nil || c.SnapThreshold <= 0 {
		errs = append(errs, fmt.Errorf("SNAP_THRESHOLD: want a positive number, got %q", os.Getenv("SNAP_THRESHOLD")))
	}
	c.SnapLegacyRole, err = strconv.ParseBool(getEnv("SNAP_LEGACY_ROLE", "false"))
	if err != nil {
		errs = append(errs, fmt.Errorf("SNAP_LEGACY_ROLE: %w", err))
	}

	if n, err := strconv.Atoi(c.Port); err != nil || n <= 0 || n > 65535 {
		errs = append(errs, fmt.Errorf("PORT: invalid port %q", c.Port))
	}
	if c.Production() && c.JWTSecret == devSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	return c, errors.Join(errs...)
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
