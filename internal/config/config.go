// internal/config/config.go
//
// Runtime configuration for the Guess the Flag server.
//
// Sources, lowest to highest precedence:
//   1. built-in defaults
//   2. optional YAML file named by QUIZ_CONFIG (round_cap, feedback_delay_ms,
//      countries, countries_file)
//   3. environment variables (main loads `.env` into the environment first)
//
// Environment variables:
//   PORT, LOG_LEVEL, CLIENT_ORIGIN, NODE_ENV, JWT_SECRET, JWT_EXPIRES_DAYS,
//   COOKIE_NAME, DAILY_SALT, COUNTRIES_FILE, ROUND_CAP, FEEDBACK_DELAY_MS,
//   SESSION_TTL_MINUTES, QUIZ_CONFIG

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable the server reads at startup.
type Config struct {
	Port         string
	LogLevel     string
	ClientOrigin string
	Production   bool // NODE_ENV=production: Secure + SameSite=None cookies

	JWTSecret      string
	JWTExpiresDays int
	CookieName     string

	DailySalt     string
	CountriesFile string
	Countries     []string // inline catalog from YAML; wins over CountriesFile
	RoundCap      int
	FeedbackDelay time.Duration
	SessionTTL    time.Duration // idle games are dropped after this long
}

// fileConfig mirrors the YAML schema.
type fileConfig struct {
	RoundCap        *int     `yaml:"round_cap"`
	FeedbackDelayMs *int     `yaml:"feedback_delay_ms"`
	Countries       []string `yaml:"countries"`
	CountriesFile   string   `yaml:"countries_file"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:           "5175",
		LogLevel:       "info",
		ClientOrigin:   "http://localhost:5173",
		JWTSecret:      "dev_secret_change_me",
		JWTExpiresDays: 14,
		CookieName:     "flags_token",
		DailySalt:      "local_dev_salt",
		RoundCap:       8,
		FeedbackDelay:  time.Second,
		SessionTTL:     2 * time.Hour,
	}
}

// Load reads the YAML file (if QUIZ_CONFIG is set) and then the environment.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("QUIZ_CONFIG"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyFile overlays a YAML config file.
func applyFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if fc.RoundCap != nil {
		cfg.RoundCap = *fc.RoundCap
	}
	if fc.FeedbackDelayMs != nil {
		cfg.FeedbackDelay = time.Duration(*fc.FeedbackDelayMs) * time.Millisecond
	}
	if len(fc.Countries) > 0 {
		cfg.Countries = fc.Countries
	}
	if fc.CountriesFile != "" {
		cfg.CountriesFile = fc.CountriesFile
	}
	return cfg.validate()
}

// applyEnv overlays environment variables.
func applyEnv(cfg *Config) error {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.ClientOrigin = getEnv("CLIENT_ORIGIN", cfg.ClientOrigin)
	cfg.Production = os.Getenv("NODE_ENV") == "production"
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.CookieName = getEnv("COOKIE_NAME", cfg.CookieName)
	cfg.DailySalt = getEnv("DAILY_SALT", cfg.DailySalt)
	cfg.CountriesFile = getEnv("COUNTRIES_FILE", cfg.CountriesFile)

	var err error
	if cfg.JWTExpiresDays, err = envInt("JWT_EXPIRES_DAYS", cfg.JWTExpiresDays); err != nil {
		return err
	}
	if cfg.RoundCap, err = envInt("ROUND_CAP", cfg.RoundCap); err != nil {
		return err
	}
	ms, err := envInt("FEEDBACK_DELAY_MS", int(cfg.FeedbackDelay/time.Millisecond))
	if err != nil {
		return err
	}
	cfg.FeedbackDelay = time.Duration(ms) * time.Millisecond
	mins, err := envInt("SESSION_TTL_MINUTES", int(cfg.SessionTTL/time.Minute))
	if err != nil {
		return err
	}
	cfg.SessionTTL = time.Duration(mins) * time.Minute
	return cfg.validate()
}

func (c Config) validate() error {
	if c.RoundCap < 1 {
		return fmt.Errorf("round cap must be >= 1, got %d", c.RoundCap)
	}
	if c.FeedbackDelay < 0 {
		return fmt.Errorf("feedback delay must be >= 0, got %v", c.FeedbackDelay)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be > 0, got %v", c.SessionTTL)
	}
	return nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// envInt parses an integer env var, returning def if unset.
func envInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}
