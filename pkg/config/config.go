package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process-level configuration for the application.
// Run-level parameters (factor, horizon, percentiles) live in internal/runconfig.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Market data fetchers
	Fetch FetchConfig

	// Backtest inputs used by the API server and scheduler
	Backtest BacktestConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Scheduler
	Scheduler SchedulerConfig
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// FetchConfig holds market data fetcher configuration
type FetchConfig struct {
	StooqBaseURL   string
	UniverseURL    string
	MaxTickers     int // lexicographic cap on the fetched universe
	RatePerSecond  float64
	PriceCacheTTL  time.Duration
	RequestTimeout time.Duration
}

// BacktestConfig holds file inputs for server-mode pipeline runs
type BacktestConfig struct {
	RunConfigPath string
	PanelPath     string
	PricesPath    string
}

// SchedulerConfig holds the nightly refresh schedule
type SchedulerConfig struct {
	Enabled     bool
	RefreshSpec string // cron expression with seconds field
}

// Load reads configuration from environment variables.
// This is the only place os.Getenv is called.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Fetch: FetchConfig{
			StooqBaseURL:   getEnv("STOOQ_BASE_URL", "https://stooq.com"),
			UniverseURL:    getEnv("UNIVERSE_URL", "https://www.slickcharts.com/sp500"),
			MaxTickers:     getEnvAsInt("FETCH_MAX_TICKERS", 100),
			RatePerSecond:  getEnvAsFloat("FETCH_RATE_PER_SECOND", 2.0),
			PriceCacheTTL:  getEnvAsDuration("FETCH_PRICE_CACHE_TTL", "12h"),
			RequestTimeout: getEnvAsDuration("FETCH_REQUEST_TIMEOUT", "30s"),
		},

		Backtest: BacktestConfig{
			RunConfigPath: getEnv("BACKTEST_CONFIG", "config/backtest.yaml"),
			PanelPath:     getEnv("BACKTEST_PANEL", "data/sentiment_panel.csv"),
			PricesPath:    getEnv("BACKTEST_PRICES", "data/prices.csv"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Scheduler: SchedulerConfig{
			Enabled:     getEnvAsBool("SCHEDULER_ENABLED", false),
			RefreshSpec: getEnv("SCHEDULER_REFRESH_SPEC", "0 0 6 * * *"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Fetch.MaxTickers <= 0 {
		return fmt.Errorf("FETCH_MAX_TICKERS must be > 0")
	}

	if c.Scheduler.Enabled && c.Scheduler.RefreshSpec == "" {
		return fmt.Errorf("SCHEDULER_REFRESH_SPEC is required when the scheduler is enabled")
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
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
