// Package config loads runtime configuration from the environment,
// following the same envOrDefault pattern the server entrypoint has
// always used — no flags, one env var per setting, with an optional .env
// file read first for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is every environment-tunable setting the server reads at startup.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	DatabaseURL     string
	ClickHouseDSN   string
	ScanTimeout     time.Duration
	DefaultThreshold int
	RateRPS         float64
	RateBurst       int
	AuthCacheTTL    time.Duration

	CommunityRulesURL string
	CommunityCacheTTL time.Duration
}

// Load reads a .env file if present (local development only; never
// required in production, where real env vars are already set) and
// returns a Config populated from the environment.
func Load() *Config {
	_ = godotenv.Load() // best-effort; absence is normal in production

	return &Config{
		HTTPAddr:         envOrDefault("FORENSICATE_HTTP_ADDR", ":8080"),
		LogLevel:         envOrDefault("FORENSICATE_LOG_LEVEL", "info"),
		DatabaseURL:      os.Getenv("FORENSICATE_DATABASE_URL"),
		ClickHouseDSN:    os.Getenv("FORENSICATE_CLICKHOUSE_DSN"),
		ScanTimeout:      time.Duration(envOrDefaultInt("FORENSICATE_SCAN_TIMEOUT_MS", 200)) * time.Millisecond,
		DefaultThreshold: envOrDefaultInt("FORENSICATE_DEFAULT_THRESHOLD", 70),
		RateRPS:          envOrDefaultFloat("FORENSICATE_RATE_RPS", 20),
		RateBurst:        envOrDefaultInt("FORENSICATE_RATE_BURST", 40),
		AuthCacheTTL:     time.Duration(envOrDefaultInt("FORENSICATE_AUTH_CACHE_TTL_S", 30)) * time.Second,

		CommunityRulesURL: os.Getenv("FORENSICATE_COMMUNITY_RULES_URL"),
		CommunityCacheTTL: time.Duration(envOrDefaultInt("FORENSICATE_COMMUNITY_CACHE_TTL_S", 86400)) * time.Second,
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envOrDefaultFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
