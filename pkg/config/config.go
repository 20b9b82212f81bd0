package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Data source kinds accepted by DATA_SOURCE
const (
	SourceDemo     = "demo"
	SourceIBP      = "ibp"
	SourcePostgres = "postgres"
)

// DefaultDatasetTypes is the set of master data types loaded when DATASET_TYPES is unset
var DefaultDatasetTypes = []string{
	"Products",
	"Locations",
	"Customers",
	"Suppliers",
	"Time Profiles",
	"Resource Plans",
}

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (Postgres master data source)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// SAP IBP
	IBP IBPConfig

	// Data acquisition
	Source SourceConfig

	// Analysis
	Analysis AnalysisConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL    string
	Schema string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// IBPConfig holds SAP IBP (Integrated Business Planning) connection settings
type IBPConfig struct {
	URL       string
	Client    string
	Username  string
	Password  string
	Timeout   time.Duration
	RateLimit int // requests per second
}

// SourceConfig selects where master data tables come from
type SourceConfig struct {
	Kind     string
	Types    []string
	DemoSeed uint64
	CacheTTL time.Duration
}

// AnalysisConfig holds analyzer and scheduling settings
type AnalysisConfig struct {
	Workers      int
	Schedule     string
	ProfilesFile string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Schema:          getEnv("DB_SCHEMA", "masterdata"),
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

		IBP: IBPConfig{
			URL:       strings.TrimRight(getEnv("IBP_URL", ""), "/"),
			Client:    getEnv("IBP_CLIENT", ""),
			Username:  getEnv("IBP_USERNAME", ""),
			Password:  getEnv("IBP_PASSWORD", ""),
			Timeout:   getEnvAsDuration("IBP_TIMEOUT", "60s"),
			RateLimit: getEnvAsInt("IBP_RATE_LIMIT", 5),
		},

		Source: SourceConfig{
			Kind:     strings.ToLower(getEnv("DATA_SOURCE", SourceDemo)),
			Types:    getEnvAsList("DATASET_TYPES", DefaultDatasetTypes),
			DemoSeed: uint64(getEnvAsInt("DEMO_SEED", 42)),
			CacheTTL: getEnvAsDuration("SOURCE_CACHE_TTL", "10m"),
		},

		Analysis: AnalysisConfig{
			Workers:      getEnvAsInt("ANALYSIS_WORKERS", 4),
			Schedule:     getEnv("ANALYSIS_SCHEDULE", "0 0 */6 * * *"),
			ProfilesFile: getEnv("PROFILES_FILE", ""),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Source.Kind {
	case SourceDemo:
	case SourceIBP:
		if c.IBP.URL == "" || c.IBP.Username == "" {
			return fmt.Errorf("IBP_URL and IBP_USERNAME are required when DATA_SOURCE=ibp")
		}
	case SourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_SOURCE=postgres")
		}
	default:
		return fmt.Errorf("DATA_SOURCE must be one of: demo, ibp, postgres (got %q)", c.Source.Kind)
	}

	if len(c.Source.Types) == 0 {
		return fmt.Errorf("DATASET_TYPES must name at least one dataset type")
	}

	if c.Analysis.Workers < 1 {
		return fmt.Errorf("ANALYSIS_WORKERS must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
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

// getEnvAsList splits a comma-separated value, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return append([]string(nil), defaultValue...)
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
