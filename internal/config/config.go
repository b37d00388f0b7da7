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
	_ "time/tzdata"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Logging
	LogLevel string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID string

	// Planning
	PlanCacheSize        int
	PlanCacheTTL         time.Duration
	DailyCarryOverPolicy string
	GuardPlanEdits       bool
	Timezone             string

	// Export worker
	ExportBatchSize      int
	ExportResyncInterval time.Duration
}

var (
	validBackends = []string{"memory", "sqlite"}
	validPolicies = []string{"latest_record", "previous_month"}
	validLevels   = []string{"debug", "info", "warn", "error"}
)

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/mineplan.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "mineplan"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "plan_exports"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),

		PlanCacheSize:        getEnvInt("PLAN_CACHE_SIZE", 64),
		PlanCacheTTL:         getEnvDuration("PLAN_CACHE_TTL", 5*time.Minute),
		DailyCarryOverPolicy: getEnv("DAILY_CARRY_OVER_POLICY", "latest_record"),
		GuardPlanEdits:       getEnvBool("GUARD_PLAN_EDITS", false),
		Timezone:             getEnv("TIMEZONE", "UTC"),

		ExportBatchSize:      getEnvInt("EXPORT_BATCH_SIZE", 50),
		ExportResyncInterval: getEnvDuration("EXPORT_RESYNC_INTERVAL", 15*time.Minute),
	}

	return cfg
}

// Location returns the time zone used for the edit and delete gates.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// AMQP is optional; an empty URL disables plan events.
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.PlanCacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid plan cache size %d: must not be negative", c.PlanCacheSize))
	}
	if c.PlanCacheSize > 0 && c.PlanCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid plan cache TTL %v: must be at least 1 second", c.PlanCacheTTL))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if !slices.Contains(validPolicies, c.DailyCarryOverPolicy) {
		errors = append(errors, fmt.Sprintf("invalid daily carry-over policy '%s': must be one of %v", c.DailyCarryOverPolicy, validPolicies))
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if c.ExportBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be at least 1", c.ExportBatchSize))
	} else if c.ExportBatchSize > 100 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be at most 100", c.ExportBatchSize))
	}

	if c.ExportResyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export resync interval %v: must be at least 1 second", c.ExportResyncInterval))
	} else if c.ExportResyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export resync interval %v: must be at most 24 hours", c.ExportResyncInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
