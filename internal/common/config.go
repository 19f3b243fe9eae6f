package common

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Store      StoreConfig
	Server     ServerConfig
	Extraction ExtractionConfig
	Overrides  OverridesConfig
	Batch      BatchConfig
}

// DatabaseConfig holds the optional Postgres store configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// StoreConfig selects the local SQLite store used when no DSN is set
type StoreConfig struct {
	SQLitePath string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// ExtractionConfig tunes the PDF text cascade
type ExtractionConfig struct {
	PdftotextBin    string
	BackendTimeout  time.Duration
	RowTolerance    float64
	DisableExternal bool
}

// OverridesConfig points at an extra override table merged after the builtin one
type OverridesConfig struct {
	Path string
}

// BatchConfig holds worker and watcher settings
type BatchConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
	WatchDirs  []string
	ReportDir  string
}

// LoadDotEnv loads .env style files into the process environment.
// Missing files are ignored; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return NewAppError("CONFIG_ERROR", "load "+p, err)
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Store: StoreConfig{
			SQLitePath: getEnv("SQLITE_PATH", "nfse.db"),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		Extraction: ExtractionConfig{
			PdftotextBin:    getEnv("PDFTOTEXT_BIN", "pdftotext"),
			BackendTimeout:  getEnvAsDuration("BACKEND_TIMEOUT", 20*time.Second),
			RowTolerance:    getEnvAsFloat64("ROW_TOLERANCE", 2.0),
			DisableExternal: getEnvAsBool("DISABLE_EXTERNAL_BACKENDS", false),
		},
		Overrides: OverridesConfig{
			Path: getEnv("OVERRIDES_PATH", ""),
		},
		Batch: BatchConfig{
			Workers:    getEnvAsInt("WORKERS", 4),
			QueueSize:  getEnvAsInt("QUEUE_SIZE", 64),
			JobTimeout: getEnvAsDuration("JOB_TIMEOUT", 2*time.Minute),
			WatchDirs:  getEnvAsList("WATCH_DIRS"),
			ReportDir:  getEnv("REPORT_DIR", "."),
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

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" && c.Store.SQLitePath == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL or SQLITE_PATH is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.Batch.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "WORKERS must be positive", ErrInvalidInput)
	}
	if c.Extraction.BackendTimeout <= 0 {
		return NewAppError("CONFIG_ERROR", "BACKEND_TIMEOUT must be positive", ErrInvalidInput)
	}
	return nil
}
