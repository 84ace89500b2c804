package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Backends accepted by DATA_BACKEND.
var Backends = []string{"memory", "sqlite", "postgres"}

type Config struct {
	// HTTP server
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Storage
	DataBackend  string
	SQLiteDBPath string
	DatabaseURL  string

	// Auth
	AuthJWTSecret string
	AuthAudience  string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Summary cache and rate limiting
	SummaryCacheTTL  time.Duration
	SummaryCacheSize int
	RateLimitRPM     int

	// Recurring worker
	RecurringSchedule string
}

// Load reads configuration from the environment. When CONFIG_FILE names a
// TOML file its keys, the lowercase environment names, provide the values
// environment variables do not set.
func Load() (*Config, error) {
	src := source{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		file, err := readFile(path)
		if err != nil {
			return nil, err
		}
		src.file = file
	}

	cfg := &Config{
		Port:            src.get("PORT", "8081"),
		LogLevel:        src.get("LOG_LEVEL", "info"),
		ShutdownTimeout: src.getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DataBackend:  src.get("DATA_BACKEND", "memory"),
		SQLiteDBPath: src.get("SQLITE_DB_PATH", "./data/finanzas.db"),
		DatabaseURL:  src.get("DATABASE_URL", ""),

		AuthJWTSecret: src.get("AUTH_JWT_SECRET", ""),
		AuthAudience:  src.get("AUTH_AUDIENCE", "authenticated"),

		AMQPURL:      src.get("AMQP_URL", ""),
		AMQPExchange: src.get("AMQP_EXCHANGE", "finanzas"),
		AMQPQueue:    src.get("AMQP_QUEUE", "transactions_sheet_sync"),

		GoogleSpreadsheetID:      src.get("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          src.get("GOOGLE_SHEET_NAME", "Movimientos"),
		GoogleServiceAccountJSON: src.get("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: src.get("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		SummaryCacheTTL:  src.getDuration("SUMMARY_CACHE_TTL", 5*time.Minute),
		SummaryCacheSize: src.getInt("SUMMARY_CACHE_SIZE", 500),
		RateLimitRPM:     src.getInt("RATE_LIMIT_RPM", 120),

		RecurringSchedule: src.get("RECURRING_SCHEDULE", "@every 1h"),
	}
	return cfg, nil
}

// Validate reports every problem at once rather than the first one.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(Backends, c.DataBackend) {
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}
	if c.DataBackend == "sqlite" && strings.TrimSpace(c.SQLiteDBPath) == "" {
		problems = append(problems, "SQLITE_DB_PATH cannot be empty when using sqlite backend")
	}
	if c.DataBackend == "postgres" && strings.TrimSpace(c.DatabaseURL) == "" {
		problems = append(problems, "DATABASE_URL is required when using postgres backend")
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" || c.AMQPQueue == "" {
			problems = append(problems, "AMQP exchange and queue names cannot be empty when AMQP_URL is set")
		}
	}

	if c.SummaryCacheTTL < 0 {
		problems = append(problems, fmt.Sprintf("invalid summary cache TTL %v: must not be negative", c.SummaryCacheTTL))
	}
	if c.SummaryCacheSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid summary cache size %d: must be at least 1", c.SummaryCacheSize))
	}
	if c.RateLimitRPM < 0 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitRPM))
	}
	if _, err := cron.ParseStandard(c.RecurringSchedule); err != nil {
		problems = append(problems, fmt.Sprintf("invalid recurring schedule '%s': %v", c.RecurringSchedule, err))
	}
	if c.ShutdownTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// ValidateAPI adds the checks only the HTTP server needs.
func (c *Config) ValidateAPI() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.AuthJWTSecret) == "" {
		return fmt.Errorf("configuration validation failed:\n- AUTH_JWT_SECRET is required")
	}
	return nil
}

// SheetsEnabled reports whether the spreadsheet mirror is configured.
func (c *Config) SheetsEnabled() bool {
	return strings.TrimSpace(c.GoogleSpreadsheetID) != ""
}

type source struct {
	file map[string]string
}

func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return out, nil
}

func (s source) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := s.file[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (s source) getInt(key string, defaultValue int) int {
	if i, err := strconv.Atoi(s.get(key, "")); err == nil {
		return i
	}
	return defaultValue
}

func (s source) getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(s.get(key, "")); err == nil {
		return d
	}
	return defaultValue
}
