// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for snapshot and database files (always absolute)
	SnapshotPath    string // Path of the sqlite snapshot file (defaults to <DataDir>/drachma.db)
	LogLevel        string
	Port            int
	DevMode         bool
	ImportBatchSize int     // Rows per import batch
	DuplicateEps    float64 // Amount tolerance used by duplicate detection
	DuplicatePrefix int     // Minimum description prefix length for a duplicate match
	SnapshotSpec    string  // Cron spec for the periodic snapshot job

	BaseCurrency    string // Currency code rates are fetched against
	RateAPIBaseURL  string // Exchange-rate API base URL
	RateRefreshSpec string // Cron spec for the rate refresh job, empty disables it

	Backup *BackupConfig
}

// BackupConfig holds snapshot backup configuration for S3-compatible storage
type BackupConfig struct {
	Enabled   bool
	Bucket    string
	Prefix    string
	Endpoint  string // Custom endpoint for S3-compatible providers, empty for AWS
	Region    string
	AccessKey string
	SecretKey string
	Keep      int    // Number of backups retained by pruning
	Schedule  string // Cron spec for the backup job
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DRACHMA_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	snapshotPath := getEnv("DRACHMA_SNAPSHOT_PATH", "")
	if snapshotPath == "" {
		snapshotPath = filepath.Join(absDataDir, "drachma.db")
	}

	cfg := &Config{
		DataDir:         absDataDir,
		SnapshotPath:    snapshotPath,
		Port:            getEnvAsInt("DRACHMA_PORT", 8040),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ImportBatchSize: getEnvAsInt("IMPORT_BATCH_SIZE", 100),
		DuplicateEps:    getEnvAsFloat("DUPLICATE_AMOUNT_EPSILON", 0.01),
		DuplicatePrefix: getEnvAsInt("DUPLICATE_MIN_PREFIX", 4),
		SnapshotSpec:    getEnv("SNAPSHOT_CRON", "@every 5m"),
		BaseCurrency:    getEnv("BASE_CURRENCY", "USD"),
		RateAPIBaseURL:  getEnv("RATE_API_BASE_URL", "https://api.exchangerate-api.com/v4/latest"),
		RateRefreshSpec: getEnv("RATE_REFRESH_CRON", "0 7 * * *"),
		Backup:          loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.ImportBatchSize <= 0 {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be positive, got %d", c.ImportBatchSize)
	}
	if c.DuplicateEps < 0 {
		return fmt.Errorf("DUPLICATE_AMOUNT_EPSILON must not be negative, got %f", c.DuplicateEps)
	}
	if c.Backup != nil && c.Backup.Enabled && c.Backup.Bucket == "" {
		return fmt.Errorf("BACKUP_BUCKET is required when backups are enabled")
	}
	return nil
}

// loadBackupConfig loads backup configuration; backups are opt-in
func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:   getEnvAsBool("BACKUP_ENABLED", false),
		Bucket:    getEnv("BACKUP_BUCKET", ""),
		Prefix:    getEnv("BACKUP_PREFIX", "drachma-backups"),
		Endpoint:  getEnv("BACKUP_S3_ENDPOINT", ""),
		Region:    getEnv("BACKUP_S3_REGION", "auto"),
		AccessKey: getEnv("BACKUP_S3_ACCESS_KEY", ""),
		SecretKey: getEnv("BACKUP_S3_SECRET_KEY", ""),
		Keep:      getEnvAsInt("BACKUP_KEEP", 7),
		Schedule:  getEnv("BACKUP_CRON", "30 3 * * *"),
	}
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
