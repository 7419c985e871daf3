// Package config loads runtime configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full runtime configuration.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Postgres captures the database connection settings.
type Postgres struct {
	// URL is a postgres connection string. Empty means no database; the
	// server then runs on in-memory stores (development mode).
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Redis captures the challenge store connection settings.
type Redis struct {
	// URL is a redis connection string. Empty means no Redis; the OTP gate
	// then runs on the in-memory challenge store (development mode).
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds the configuration from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            getenv("TURNSTILE_ADDR", ":8080"),
			ShutdownTimeout: getduration("TURNSTILE_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: Postgres{
			URL:             os.Getenv("TURNSTILE_POSTGRES_URL"),
			MaxOpenConns:    getint("TURNSTILE_POSTGRES_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getint("TURNSTILE_POSTGRES_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getduration("TURNSTILE_POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: Redis{
			URL:          os.Getenv("TURNSTILE_REDIS_URL"),
			PoolSize:     getint("TURNSTILE_REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("TURNSTILE_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getduration("TURNSTILE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getduration("TURNSTILE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getduration("TURNSTILE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
