package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Extraction ExtractionConfig
	Ledger     LedgerConfig
	History    HistoryConfig
	Operator   OperatorConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
}

// ExtractionConfig holds configuration for the document extraction service.
type ExtractionConfig struct {
	APIKey       string
	Model        string
	Temperature  float32
	PollInterval time.Duration
	MaxWait      time.Duration
	// EventListPath is an optional reference PDF uploaded alongside every
	// submission so event codes resolve against the canonical list.
	EventListPath string
	// EventCatalogPath is an optional plain-text catalog used for the
	// best-effort event name check after parsing.
	EventCatalogPath string
}

// LedgerConfig holds configuration for the shared registration ledger.
type LedgerConfig struct {
	SpreadsheetID   string
	SheetTabID      int64
	CredentialsFile string
}

// HistoryConfig holds configuration for the local submission history store.
type HistoryConfig struct {
	DBPath string
}

// OperatorConfig identifies the deployment's operator in ledger rows.
type OperatorConfig struct {
	Identity string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		Extraction: ExtractionConfig{
			APIKey:           getEnv("GEMINI_API_KEY", ""),
			Model:            getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			Temperature:      getEnvAsFloat32("GEMINI_TEMPERATURE", 1.0),
			PollInterval:     getEnvAsDuration("POLL_INTERVAL", 10*time.Second),
			MaxWait:          getEnvAsDuration("MAX_WAIT", 5*time.Minute),
			EventListPath:    getEnv("EVENT_LIST_PATH", ""),
			EventCatalogPath: getEnv("EVENT_CATALOG_PATH", ""),
		},
		Ledger: LedgerConfig{
			SpreadsheetID:   getEnv("SHEET_ID", ""),
			SheetTabID:      getEnvAsInt64("SHEET_TAB_ID", 0),
			CredentialsFile: getEnv("SERVICE_ACCOUNT_FILE", "service_account.json"),
		},
		History: HistoryConfig{
			DBPath: getEnv("HISTORY_DB_PATH", "./registrations.db"),
		},
		Operator: OperatorConfig{
			Identity: getEnv("OPERATOR_IDENTITY", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Extraction.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrValidation)
	}
	if c.Ledger.SpreadsheetID == "" {
		return NewAppError("CONFIG_ERROR", "SHEET_ID is required", ErrValidation)
	}
	if c.Operator.Identity == "" {
		return NewAppError("CONFIG_ERROR", "OPERATOR_IDENTITY is required", ErrValidation)
	}
	if c.Extraction.PollInterval <= 0 || c.Extraction.MaxWait <= 0 {
		return NewAppError("CONFIG_ERROR", "POLL_INTERVAL and MAX_WAIT must be positive", ErrValidation)
	}
	return nil
}
