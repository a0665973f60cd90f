package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// DataDir is the root of the file persistence layout (history
	// logs, registry snapshots, voice-note blobs).
	DataDir string

	// DatabaseURL switches the directory registry to PostgreSQL when
	// set; the file snapshot is the default.
	DatabaseURL string

	// RedisURL switches the pending queue to Redis when set; the
	// in-memory queue is the default.
	RedisURL string

	// PushTimeout bounds every live push attempt; past it the push is
	// treated as failed and the event falls back to the queue.
	PushTimeout time.Duration

	// MaxVoiceNoteBytes limits uploaded voice-note payloads.
	MaxVoiceNoteBytes int64
}

// Load reads configuration from environment variables. In development
// it loads from a .env file if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		DataDir:           getEnv("DATA_DIR", "./data"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		PushTimeout:       getDuration("PUSH_TIMEOUT", 3*time.Second),
		MaxVoiceNoteBytes: getInt64("MAX_VOICE_NOTE_BYTES", 4<<20),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
