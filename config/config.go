// ABOUTME: Configuration loader for the capacity planner service
// ABOUTME: Loads settings from environment variables and an optional .env file

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port               string
	CacheTTL           int      // seconds a rank response stays cached (default 300)
	CORSAllowedOrigins []string // allowed CORS origins (empty = any origin)
	MetricsEnabled     bool     // expose /metrics (default: true)

	// Catalog
	CatalogPath            string // YAML/JSON snapshot file; empty = embedded default
	CatalogURL             string // remote snapshot, wins over CatalogPath
	CatalogAllProxy        string // ssh+socks5://user@host:port?private-key=/path
	CatalogRefreshInterval int    // seconds between background reloads; 0 disables

	// Rate Limiting
	RateLimitEnabled bool // Enable rate limiting (default: true)
	RateLimitRank    int  // Requests per minute for POST /rank (default: 60)
	RateLimitDefault int  // Requests per minute for all other endpoints (default: 300)

	// Ranking defaults for omitted request knobs
	DefaultAlpha            float64
	DefaultBeta             float64
	DefaultOutputTokenRatio float64
}

// RefreshInterval is CatalogRefreshInterval as a duration
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.CatalogRefreshInterval) * time.Second
}

// CacheDuration is CacheTTL as a duration
func (c *Config) CacheDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Load reads configuration. Values from a .env file in the working directory
// fill in variables that are not already set.
func Load() (*Config, error) {
	if err := loadDotEnv(getEnv("DOTENV_PATH", ".env")); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		CacheTTL:           getEnvInt("CACHE_TTL", 300),
		CORSAllowedOrigins: getEnvStringList("CORS_ALLOWED_ORIGINS"),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),

		CatalogPath:            os.Getenv("CATALOG_PATH"),
		CatalogURL:             ensureScheme(os.Getenv("CATALOG_URL")),
		CatalogAllProxy:        os.Getenv("CATALOG_ALL_PROXY"),
		CatalogRefreshInterval: getEnvInt("CATALOG_REFRESH_INTERVAL", 0),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitRank:    getEnvInt("RATE_LIMIT_RANK", 60),
		RateLimitDefault: getEnvInt("RATE_LIMIT_DEFAULT", 300),

		DefaultAlpha:            getEnvFloat("DEFAULT_ALPHA", 1.0),
		DefaultBeta:             getEnvFloat("DEFAULT_BETA", 0.08),
		DefaultOutputTokenRatio: getEnvFloat("DEFAULT_OUTPUT_TOKEN_RATIO", 3.0),
	}

	// Validate rate limit values
	for _, rl := range []struct {
		name  string
		value int
	}{
		{"RATE_LIMIT_RANK", cfg.RateLimitRank},
		{"RATE_LIMIT_DEFAULT", cfg.RateLimitDefault},
	} {
		if rl.value < 1 || rl.value > 10000 {
			return nil, fmt.Errorf("%s must be between 1 and 10000, got %d", rl.name, rl.value)
		}
	}

	for _, knob := range []struct {
		name  string
		value float64
	}{
		{"DEFAULT_ALPHA", cfg.DefaultAlpha},
		{"DEFAULT_BETA", cfg.DefaultBeta},
		{"DEFAULT_OUTPUT_TOKEN_RATIO", cfg.DefaultOutputTokenRatio},
	} {
		if knob.value < 0 {
			return nil, fmt.Errorf("%s must be >= 0, got %g", knob.name, knob.value)
		}
	}

	if cfg.CacheTTL < 0 {
		return nil, fmt.Errorf("CACHE_TTL must be >= 0, got %d", cfg.CacheTTL)
	}
	if cfg.CatalogRefreshInterval < 0 {
		return nil, fmt.Errorf("CATALOG_REFRESH_INTERVAL must be >= 0, got %d", cfg.CatalogRefreshInterval)
	}
	if cfg.CatalogAllProxy != "" && cfg.CatalogURL == "" {
		return nil, fmt.Errorf("CATALOG_ALL_PROXY requires CATALOG_URL")
	}

	return cfg, nil
}

// loadDotEnv applies a .env file without overriding the process environment.
// A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvStringList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ensureScheme adds https:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}
