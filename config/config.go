package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the typed view of go-servicekit's own environment knobs.
// Everything has a working default; a .env file or real environment
// variables override it.
type Config struct {
	Log   LogConfig
	Cache CacheConfig
	Mode  ModeConfig
}

type LogConfig struct {
	Level   string // debug | info | warn | error | fatal
	Console bool   // write through stderr instead of discarding
}

type CacheConfig struct {
	LoggerSize int // entries in the per-type logger cache
}

type ModeConfig struct {
	ForceTest string // "" = auto-detect, otherwise a boolean
}

// Forced returns the forced test-mode value when ForceTest holds a
// parseable boolean; ok is false for empty or malformed values.
func (m ModeConfig) Forced() (value, ok bool) {
	if m.ForceTest == "" {
		return false, false
	}
	v, err := strconv.ParseBool(m.ForceTest)
	if err != nil {
		return false, false
	}
	return v, true
}

// Load reads .env (if present) and populates a Config from environment
// variables. Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist outside development
	_ = godotenv.Load(files...)

	return &Config{
		Log: LogConfig{
			Level:   env("SERVICEKIT_LOG_LEVEL", "info"),
			Console: envBool("SERVICEKIT_LOG_CONSOLE", false),
		},
		Cache: CacheConfig{
			LoggerSize: envInt("SERVICEKIT_LOGGER_CACHE_SIZE", 64),
		},
		Mode: ModeConfig{
			ForceTest: env("SERVICEKIT_TEST_MODE", ""),
		},
	}
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	return envInt(key, defaultVal)
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
