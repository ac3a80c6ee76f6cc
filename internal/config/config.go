package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the runtime tuning for the auction engine. Values come from
// the environment, optionally seeded from a .env file.
type Config struct {
	Port string

	// Soft close (anti-snipe): a bid landing within SoftCloseWindow of the
	// end pushes the end time out by ExtensionLength, at most MaxExtensions
	// times per auction.
	SoftCloseWindow time.Duration
	ExtensionLength time.Duration
	MaxExtensions   int

	// TickInterval drives the expiry sweeper.
	TickInterval time.Duration

	// AutoBidMaxIterations bounds one auto-bid escalation run.
	AutoBidMaxIterations int
}

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit environment variables always win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:                 envString("PORT", "8080"),
		SoftCloseWindow:      envDuration("SOFT_CLOSE_WINDOW", 30*time.Second),
		ExtensionLength:      envDuration("EXTENSION_LENGTH", 2*time.Minute),
		MaxExtensions:        envInt("MAX_EXTENSIONS", 10),
		TickInterval:         envDuration("TICK_INTERVAL", time.Second),
		AutoBidMaxIterations: envInt("AUTOBID_MAX_ITERATIONS", 100),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
