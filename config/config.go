package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port         string
	DBPath       string
	QueryDefsDir string
	ResultsDir   string

	// Query pipeline settings
	QueryTimeout     time.Duration
	CountTimeout     time.Duration
	DefaultPageLimit int
	MaxPageLimit     int

	// Spreadsheet comparison settings
	MaxUploadBytes   int64
	UploadReadLimit  time.Duration
	MaxSheetDiffs    int
	MaxCompareCells  int
	ClampedRowExtent int

	// Bounded concurrency for CPU-heavy compare/export work
	MaxWorkers int64

	SQLServer SQLServerConfig
}

type SQLServerConfig struct {
	Server   string
	Port     string
	Database string
	UserID   string
	Password string
	Encrypt  bool
}

func GetConfig() Config {
	return Config{
		Port:         getEnv("PORT", "9090"),
		DBPath:       getEnv("DB_PATH", "./data/badger"),
		QueryDefsDir: getEnv("QUERY_DEFS_DIR", "./query_defs"),
		ResultsDir:   getEnv("RESULTS_DIR", "./results"),

		QueryTimeout:     time.Duration(getEnvInt("QUERY_TIMEOUT_SECONDS", 45)) * time.Second,
		CountTimeout:     time.Duration(getEnvInt("COUNT_TIMEOUT_SECONDS", 30)) * time.Second,
		DefaultPageLimit: getEnvInt("DEFAULT_PAGE_LIMIT", 1000),
		MaxPageLimit:     getEnvInt("MAX_PAGE_LIMIT", 10000),

		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_MB", 50)) * 1024 * 1024,
		UploadReadLimit:  time.Duration(getEnvInt("UPLOAD_READ_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxSheetDiffs:    getEnvInt("MAX_SHEET_DIFFS", 1000),
		MaxCompareCells:  getEnvInt("MAX_COMPARE_CELLS", 1000000),
		ClampedRowExtent: getEnvInt("CLAMPED_ROW_EXTENT", 1000),

		MaxWorkers: int64(getEnvInt("MAX_WORKERS", 4)),

		SQLServer: SQLServerConfig{
			Server:   getEnv("SQL_SERVER", ""),
			Port:     getEnv("SQL_PORT", "1433"),
			Database: getEnv("SQL_DATABASE", ""),
			UserID:   getEnv("SQL_USER", ""),
			Password: getEnv("SQL_PASSWORD", ""),
			Encrypt:  getEnv("SQL_ENCRYPT", "true") == "true",
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
