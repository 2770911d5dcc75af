package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort        string
	ProviderURL       string
	ProviderAnonKey   string
	ProviderJWTSecret string
	ProviderTimeout   time.Duration
	AppBaseURL        string
	RedisAddr         string
	RedisDB           int
	RedisPass         string
	GuardFailOpen     bool
	AuthRateLimit     int64
	AuthRateWindow    time.Duration
}

// Load builds Config from environment with sensible defaults. The provider
// URL and key have no usable defaults and must be supplied out-of-band.
func Load() *Config {
	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		ProviderURL:       getEnv("PROVIDER_URL", "http://localhost:54321"),
		ProviderAnonKey:   os.Getenv("PROVIDER_ANON_KEY"),
		ProviderJWTSecret: getEnv("PROVIDER_JWT_SECRET", "change-me"),
		ProviderTimeout:   getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second),
		AppBaseURL:        getEnv("APP_BASE_URL", "http://localhost:8080"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		RedisPass:         os.Getenv("REDIS_PASSWORD"),
		GuardFailOpen:     getEnvBool("GUARD_FAIL_OPEN", false),
		AuthRateLimit:     int64(getEnvInt("AUTH_RATE_LIMIT", 10)),
		AuthRateWindow:    getEnvDuration("AUTH_RATE_WINDOW", time.Minute),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
