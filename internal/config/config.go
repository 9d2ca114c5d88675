package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Backend settings
	Port            int
	BinPath         string
	DataDir         string
	APIReadyTimeout int

	// Polling settings
	JobPollInterval  time.Duration
	RefreshInterval  time.Duration
	PriceRetryDelay  time.Duration
	PriceRetryCycles int

	// API settings
	BaseURL string

	// Backup settings
	BackupDir string
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Port:             58081,
		BinPath:          "bin/folio-core",
		APIReadyTimeout:  30,
		JobPollInterval:  4 * time.Second,
		RefreshInterval:  3 * time.Second,
		PriceRetryDelay:  5 * time.Second,
		PriceRetryCycles: 60,
		BackupDir:        "~/backups",
	}
}

// LoadFromEnvironment loads configuration from environment variables
func (c *Config) LoadFromEnvironment() {
	if port := os.Getenv("FOLIO_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Port = p
		}
	}

	if binPath := os.Getenv("FOLIO_BIN_PATH"); binPath != "" {
		c.BinPath = binPath
	}

	if dataDir := os.Getenv("FOLIO_DATA_DIR"); dataDir != "" {
		c.DataDir = dataDir
	}

	if timeout := os.Getenv("FOLIO_API_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			c.APIReadyTimeout = t
		}
	}

	if interval := os.Getenv("FOLIO_JOB_POLL_INTERVAL"); interval != "" {
		if i, err := strconv.Atoi(interval); err == nil {
			c.JobPollInterval = time.Duration(i) * time.Millisecond
		}
	}

	if interval := os.Getenv("FOLIO_REFRESH_INTERVAL"); interval != "" {
		if i, err := strconv.Atoi(interval); err == nil {
			c.RefreshInterval = time.Duration(i) * time.Millisecond
		}
	}

	if delay := os.Getenv("FOLIO_PRICE_RETRY_DELAY"); delay != "" {
		if d, err := strconv.Atoi(delay); err == nil {
			c.PriceRetryDelay = time.Duration(d) * time.Millisecond
		}
	}

	if cycles := os.Getenv("FOLIO_PRICE_RETRY_CYCLES"); cycles != "" {
		if n, err := strconv.Atoi(cycles); err == nil {
			c.PriceRetryCycles = n
		}
	}

	if backupDir := os.Getenv("FOLIO_BACKUP_DIR"); backupDir != "" {
		c.BackupDir = backupDir
	}
}

// SetBaseURL sets the base URL based on the configured port
func (c *Config) SetBaseURL() {
	c.BaseURL = fmt.Sprintf("http://localhost:%d", c.Port)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1024 and 65535, got: %d", c.Port)
	}

	if c.BinPath == "" {
		return fmt.Errorf("binary path cannot be empty")
	}

	if c.APIReadyTimeout <= 0 {
		return fmt.Errorf("API ready timeout must be positive, got: %d", c.APIReadyTimeout)
	}

	if c.JobPollInterval <= 0 {
		return fmt.Errorf("job poll interval must be positive, got: %s", c.JobPollInterval)
	}

	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got: %s", c.RefreshInterval)
	}

	if c.PriceRetryCycles < 0 {
		return fmt.Errorf("price retry cycles must be non-negative, got: %d", c.PriceRetryCycles)
	}

	return nil
}
