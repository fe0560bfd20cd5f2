package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// EngineConfig carries the tunables of the discovery-and-fill engine. The
// production values were never pinned down upstream, so everything here is
// env-configurable with observed defaults.
type EngineConfig struct {
	// PoolSize bounds how many company runs execute at once in rapid-all mode.
	PoolSize int
	// NavigationTimeout bounds a primary page load.
	NavigationTimeout time.Duration
	// ProbeTimeout bounds a direct-path fallback load (/contact etc).
	ProbeTimeout time.Duration
	// ConsentWait bounds one consent-button visibility probe.
	ConsentWait time.Duration
	// RunTimeout bounds one whole company run.
	RunTimeout time.Duration
	Headless   bool
	UserAgent  string
	// ScreenshotDir is where evidence captures are written. Empty disables
	// screenshots.
	ScreenshotDir string
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL    string
	JWTSecret      string
	OperatorKey    string
	Port           string
	BackendBaseURL string
	RateLimitStart RateLimitConfig
	TokenTTL       time.Duration
	PhoneRegion    string
	Engine         EngineConfig
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret"),
		OperatorKey:    getEnv("OPERATOR_KEY", "dev-operator-key"),
		Port:           getEnv("PORT", "8080"),
		BackendBaseURL: os.Getenv("BACKEND_BASE_URL"),
		TokenTTL:       parseDuration(getEnv("JWT_TTL", "24h"), 24*time.Hour),
		PhoneRegion:    getEnv("PHONE_REGION", "US"),
		Engine: EngineConfig{
			PoolSize:          parseInt(getEnv("ENGINE_POOL_SIZE", "5")),
			NavigationTimeout: parseDuration(getEnv("ENGINE_NAV_TIMEOUT", "20s"), 20*time.Second),
			ProbeTimeout:      parseDuration(getEnv("ENGINE_PROBE_TIMEOUT", "8s"), 8*time.Second),
			ConsentWait:       parseDuration(getEnv("ENGINE_CONSENT_WAIT", "1200ms"), 1200*time.Millisecond),
			RunTimeout:        parseDuration(getEnv("ENGINE_RUN_TIMEOUT", "90s"), 90*time.Second),
			Headless:          getEnv("ENGINE_HEADLESS", "true") != "false",
			UserAgent:         getEnv("ENGINE_USER_AGENT", defaultUserAgent),
			ScreenshotDir:     getEnv("SCREENSHOT_DIR", "screenshots"),
		},
	}

	if cfg.Engine.PoolSize <= 0 {
		cfg.Engine.PoolSize = 5
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_START", "5/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_START value: %w", err)
	}
	cfg.RateLimitStart = rl

	return cfg, nil
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(input string) int {
	value, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0
	}
	return value
}
