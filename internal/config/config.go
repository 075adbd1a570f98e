package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries everything the API process reads from the environment.
type Config struct {
	HTTPAddr        string
	DatabaseURL     string
	AuthSecret      string
	TokenIssuer     string
	TokenAudience   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	RememberMeTTL   time.Duration
	RateLimitBurst  int
	RateLimitPerSec int
	MaxBodyBytes    int64
}

// Load reads the environment, applying defaults for anything unset.
func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:     getenv("DATABASE_URL", ""),
		AuthSecret:      getenv("AUTH_SECRET", ""),
		TokenIssuer:     getenv("TOKEN_ISSUER", "boxuemingti"),
		TokenAudience:   getenv("TOKEN_AUDIENCE", "boxuemingti-web"),
		AccessTokenTTL:  getenvDuration("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL: getenvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		RememberMeTTL:   getenvDuration("REMEMBER_ME_TTL", 30*24*time.Hour),
		RateLimitBurst:  getenvInt("RATE_LIMIT_BURST", 10),
		RateLimitPerSec: getenvInt("RATE_LIMIT_PER_SEC", 5),
		MaxBodyBytes:    int64(getenvInt("MAX_BODY_BYTES", 1<<20)),
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}
