// Package config loads server settings from EXAMHALL_* environment
// variables. The server itself takes no flags.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config carries every tunable the server reads at startup.
type Config struct {
	// Addr is the TCP bind address for the wire protocol.
	Addr string
	// DBPath locates the SQLite database file.
	DBPath string
	// AdminSecret gates registration of admin users.
	AdminSecret string
	// SeedFile, when set, is an SQL script executed once while the
	// question bank is empty.
	SeedFile string
	// LogLevel selects the slog level: debug, info, warn, or error.
	LogLevel string
	// LogFile is the flat-file audit sink; empty disables the file half.
	LogFile string
	// MetricsAddr serves Prometheus metrics over HTTP; empty disables.
	MetricsAddr string
	// MaxRooms caps the in-memory room registry.
	MaxRooms int
}

// Load reads the environment, falling back to the defaults the service
// has always shipped with.
func Load() Config {
	return Config{
		Addr:        envString("EXAMHALL_ADDR", "0.0.0.0:9000"),
		DBPath:      envString("EXAMHALL_DB_PATH", "examhall.db"),
		AdminSecret: envString("EXAMHALL_ADMIN_SECRET", "network_programming"),
		SeedFile:    envString("EXAMHALL_SEED_FILE", ""),
		LogLevel:    envString("EXAMHALL_LOG_LEVEL", "info"),
		LogFile:     envString("EXAMHALL_LOG_FILE", "examhall.log"),
		MetricsAddr: envString("EXAMHALL_METRICS_ADDR", ""),
		MaxRooms:    envInt("EXAMHALL_MAX_ROOMS", 100),
	}
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("bind address is required")
	}
	if c.AdminSecret == "" {
		return fmt.Errorf("admin secret must not be empty")
	}
	if c.MaxRooms <= 0 {
		return fmt.Errorf("max rooms must be positive, got %d", c.MaxRooms)
	}
	return nil
}

func envString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
