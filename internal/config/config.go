// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aristath/rotation/internal/modules/rotation"
)

// Executor names accepted in EXECUTOR
const (
	ExecutorPaper = "paper"
	ExecutorLog   = "log"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for all databases (always absolute)
	LogLevel        string
	LogPretty       bool
	Port            int
	DevMode         bool
	StrategyFile    string
	Executor        string
	RebalanceCron   string
	MaintenanceCron string
	Timezone        *time.Location
	HistoryDays     int
	Yahoo           YahooConfig
	Backup          BackupConfig
	Strategy        rotation.Params
}

// YahooConfig holds price provider settings
type YahooConfig struct {
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// BackupConfig holds S3 backup settings. An empty bucket disables backups.
type BackupConfig struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	RetentionDays   int
}

// Enabled reports whether a bucket is configured
func (b BackupConfig) Enabled() bool {
	return b.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("ROTATION_DATA_DIR", "./data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tzName := getEnv("REBALANCE_TZ", "America/New_York")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", tzName, err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogPretty:       getEnvAsBool("LOG_PRETTY", false),
		Port:            getEnvAsInt("PORT", 8080),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		StrategyFile:    getEnv("STRATEGY_FILE", ""),
		Executor:        getEnv("EXECUTOR", ExecutorPaper),
		RebalanceCron:   getEnv("REBALANCE_CRON", "0 30 15 * * MON-FRI"),
		MaintenanceCron: getEnv("MAINTENANCE_CRON", "0 0 3 * * *"),
		Timezone:        loc,
		HistoryDays:     getEnvAsInt("HISTORY_DAYS", 500),
		Yahoo: YahooConfig{
			BaseURL:           getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			RequestsPerSecond: getEnvAsFloat("YAHOO_RPS", 2),
			Timeout:           30 * time.Second,
		},
		Backup: BackupConfig{
			Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
			Prefix:          getEnv("BACKUP_S3_PREFIX", "rotation"),
			Region:          getEnv("BACKUP_S3_REGION", "us-east-1"),
			Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 90),
		},
	}

	cfg.Strategy, err = LoadStrategy(cfg.StrategyFile)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadStrategy returns the default strategy parameters overlaid with the
// YAML file at path. Fields the file omits keep their defaults. An empty
// path returns the defaults.
func LoadStrategy(path string) (rotation.Params, error) {
	params := rotation.DefaultParams()
	if path == "" {
		return params, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("failed to read strategy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("failed to parse strategy file: %w", err)
	}
	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Executor != ExecutorPaper && c.Executor != ExecutorLog {
		return fmt.Errorf("unknown executor %q (want %q or %q)", c.Executor, ExecutorPaper, ExecutorLog)
	}
	if c.HistoryDays < 1 {
		return fmt.Errorf("invalid history days: %d", c.HistoryDays)
	}
	// Enough calendar days must be fetched to cover the required sessions
	if required := c.Strategy.RequiredHistory(); c.HistoryDays*5/7 < required {
		return fmt.Errorf("history days %d cannot cover %d sessions", c.HistoryDays, required)
	}
	if c.Yahoo.RequestsPerSecond <= 0 {
		return fmt.Errorf("invalid yahoo request rate: %v", c.Yahoo.RequestsPerSecond)
	}
	return nil
}

// PanelLimit is the number of sessions loaded per symbol for evaluation
func (c *Config) PanelLimit() int {
	return c.Strategy.RequiredHistory() + 20
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
