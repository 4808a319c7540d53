package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// NEPSE endpoint
	NEPSE NEPSEConfig

	// Local data directory (sector snapshot lives here)
	DataDir string

	// Logging
	LogLevel  string
	LogFormat string
}

// NEPSEConfig holds NEPSE web API configuration.
type NEPSEConfig struct {
	BaseURL string

	// HTTP behaviour
	Timeout         time.Duration
	RequestInterval time.Duration // politeness delay enforced before every request
	MaxRetries      int
	RetryAuthStatus bool // also retry 401/413 at the transport level

	// Floorsheet paging
	PageSize int
}

// Load reads configuration from environment variables.
// Only this function calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		NEPSE: NEPSEConfig{
			BaseURL:         getEnv("NEPSE_BASE_URL", "https://www.nepalstock.com.np"),
			Timeout:         getEnvAsDuration("NEPSE_HTTP_TIMEOUT", "30s"),
			RequestInterval: getEnvAsDuration("NEPSE_REQUEST_INTERVAL", "300ms"),
			MaxRetries:      getEnvAsInt("NEPSE_MAX_RETRIES", 3),
			RetryAuthStatus: getEnvAsBool("NEPSE_RETRY_AUTH_STATUS", true),
			PageSize:        getEnvAsInt("NEPSE_PAGE_SIZE", 2000),
		},

		DataDir: getEnv("NEPSE_DATA_DIR", "./data"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are sane.
func (c *Config) validate() error {
	if c.NEPSE.BaseURL == "" {
		return fmt.Errorf("NEPSE_BASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.NEPSE.PageSize <= 0 {
		return fmt.Errorf("NEPSE_PAGE_SIZE must be positive")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
