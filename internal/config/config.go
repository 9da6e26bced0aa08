package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRemote = "remote"
)

type Config struct {
	// HTTP Server
	Port               string
	UserHeader         string
	DefaultUser        string
	RateLimitPerMinute int

	// Backend selection
	DataBackend  string
	SQLiteDBPath string
	InoutURI     string
	InoutTimeout time.Duration

	// AMQP submission; empty URL means records are written directly.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Submitters
	SubmitTimeout time.Duration

	// Lookup cache
	LookupCacheSize int
	LookupCacheTTL  time.Duration

	// Google Sheets mirror used by the worker
	GoogleSpreadsheetID   string
	GoogleOutcomeSheet    string
	GoogleIncomeSheet     string
	GoogleCredentialsFile string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		UserHeader:         getEnv("USER_HEADER", "X-Auth-User"),
		DefaultUser:        getEnv("DEFAULT_USER", "guest"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend:  getEnv("DATA_BACKEND", BackendMemory),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/moneygr.db"),
		InoutURI:     getEnv("INOUT_URI", ""),
		InoutTimeout: getEnvDuration("INOUT_TIMEOUT", 10*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "moneygr"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "moneygr_records"),

		SubmitTimeout: getEnvDuration("SUBMIT_TIMEOUT", 15*time.Second),

		LookupCacheSize: getEnvInt("LOOKUP_CACHE_SIZE", 256),
		LookupCacheTTL:  getEnvDuration("LOOKUP_CACHE_TTL", 30*time.Minute),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleOutcomeSheet:    getEnv("GOOGLE_OUTCOME_SHEET", "Outcomes"),
		GoogleIncomeSheet:     getEnv("GOOGLE_INCOME_SHEET", "Incomes"),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// AMQPEnabled reports whether submissions go through the broker.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether the worker mirrors records to a spreadsheet.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate collects every configuration problem into a single error.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.UserHeader) == "" {
		errs = append(errs, "user header cannot be empty")
	}
	if strings.TrimSpace(c.DefaultUser) == "" {
		errs = append(errs, "default user cannot be empty")
	}
	if c.RateLimitPerMinute < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}

	validBackends := []string{BackendMemory, BackendSQLite, BackendRemote}
	if !slices.Contains(validBackends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.DataBackend == BackendRemote {
		if c.InoutURI == "" {
			errs = append(errs, "INOUT_URI is required when using remote backend")
		} else if u, err := url.Parse(c.InoutURI); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Sprintf("invalid inout URI '%s': must be an http or https URL", c.InoutURI))
		}
		if c.InoutTimeout <= 0 {
			errs = append(errs, "inout timeout must be positive")
		}
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SubmitTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid submit timeout %v: must be at least 1 second", c.SubmitTimeout))
	}

	if c.LookupCacheSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid lookup cache size %d: must be at least 1", c.LookupCacheSize))
	}
	if c.LookupCacheTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid lookup cache TTL %v: must be at least 1 second", c.LookupCacheTTL))
	}

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleOutcomeSheet == "" || c.GoogleIncomeSheet == "" {
			errs = append(errs, "outcome and income sheet names are required when a spreadsheet is configured")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
