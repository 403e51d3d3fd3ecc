package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	errs "github.com/abbensid2/alltheplaces/pkg/errors"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error for field '%s' with value '%s': %s", e.Field, e.Value, e.Message)
}

// ConfigValidator collects every problem so they can be reported at once.
type ConfigValidator struct {
	errors []ValidationError
}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{errors: make([]ValidationError, 0)}
}

func (cv *ConfigValidator) AddError(field, value, message string) {
	cv.errors = append(cv.errors, ValidationError{Field: field, Value: value, Message: message})
}

func (cv *ConfigValidator) HasErrors() bool { return len(cv.errors) > 0 }

func (cv *ConfigValidator) GetErrors() []ValidationError { return cv.errors }

func (cv *ConfigValidator) GetErrorsAsString() string {
	var errorStrings []string
	for _, err := range cv.GetErrors() {
		errorStrings = append(errorStrings, err.Error())
	}
	return strings.Join(errorStrings, "\n")
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	validator := NewConfigValidator()

	c.validateSink(validator)
	c.validateFormats(validator)
	c.validateRanges(validator)

	if validator.HasErrors() {
		return errs.NewValidation("config.Validate", fmt.Sprintf("configuration validation failed:\n%s", validator.GetErrorsAsString()), nil)
	}
	return nil
}

// validateSink checks that the selected sink has what it needs.
func (c *Config) validateSink(validator *ConfigValidator) {
	switch c.OutputSink {
	case SinkGeoJSON:
		if c.OutputPath != "" && c.OutputPath != "-" {
			if err := checkDirectoryWritable(c.OutputPath); err != nil {
				validator.AddError("OUTPUT_PATH", c.OutputPath, fmt.Sprintf("output directory is not writable: %v", err))
			}
		}
	case SinkMySQL:
		if c.DatabaseURL == "" {
			validator.AddError("DATABASE_URL", c.DatabaseURL, "database URL is required for the mysql sink")
		} else if !strings.Contains(c.DatabaseURL, "@") || !strings.Contains(c.DatabaseURL, "/") {
			validator.AddError("DATABASE_URL", maskString(c.DatabaseURL, 8), "invalid database URL format")
		}
	case SinkRedis:
		if c.RedisAddr == "" {
			validator.AddError("REDIS_ADDR", c.RedisAddr, "redis address is required for the redis sink")
		}
		if c.RedisGeoKey == "" {
			validator.AddError("REDIS_GEO_KEY", c.RedisGeoKey, "geo key must not be empty")
		}
	default:
		validator.AddError("OUTPUT_SINK", c.OutputSink, "invalid sink (must be one of: geojson, mysql, redis)")
	}
}

// validateFormats checks format validity of configuration values
func (c *Config) validateFormats(validator *ConfigValidator) {
	if c.Port == "" {
		validator.AddError("PORT", c.Port, "port is required")
	} else if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		validator.AddError("PORT", c.Port, "invalid port number (must be 1-65535)")
	}

	validLogLevels := []string{"trace", "debug", "info", "warn", "error", "fatal"}
	if c.LogLevel != "" && !contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		validator.AddError("LOG_LEVEL", c.LogLevel, "invalid log level (must be one of: trace, debug, info, warn, error, fatal)")
	}

	if c.LogFormat != "" && c.LogFormat != "json" && c.LogFormat != "text" {
		validator.AddError("LOG_FORMAT", c.LogFormat, "invalid log format (must be 'json' or 'text')")
	}

	if c.MetricsPath != "" && !strings.HasPrefix(c.MetricsPath, "/") {
		validator.AddError("METRICS_PATH", c.MetricsPath, "metrics path must start with '/'")
	}

	if c.AdapterTablePath != "" {
		if _, err := os.Stat(c.AdapterTablePath); err != nil {
			validator.AddError("ADAPTER_TABLE", c.AdapterTablePath, fmt.Sprintf("cannot read adapter table: %v", err))
		}
	}
}

// validateRanges checks value ranges
func (c *Config) validateRanges(validator *ConfigValidator) {
	if c.WorkerCount < 1 || c.WorkerCount > 256 {
		validator.AddError("WORKER_COUNT", strconv.Itoa(c.WorkerCount), "worker count must be between 1 and 256")
	}
	if c.QueueSize < 1 {
		validator.AddError("QUEUE_SIZE", strconv.Itoa(c.QueueSize), "queue size must be positive")
	}
	if c.JobTimeout <= 0 {
		validator.AddError("JOB_TIMEOUT", c.JobTimeout.String(), "job timeout must be positive")
	}
	if c.WriteRPS < 0 {
		validator.AddError("WRITE_RPS", strconv.Itoa(c.WriteRPS), "write rate cannot be negative")
	}
	if c.BreakerFailures < 0 {
		validator.AddError("BREAKER_FAILURES", strconv.Itoa(c.BreakerFailures), "breaker failures cannot be negative")
	}
	if c.BreakerFailures > 0 && c.BreakerOpenFor <= 0 {
		validator.AddError("BREAKER_OPEN_FOR", c.BreakerOpenFor.String(), "breaker open duration must be positive")
	}

	if c.OutputSink != SinkMySQL {
		return
	}
	if c.DBMaxOpenConns < 1 || c.DBMaxOpenConns > 1000 {
		validator.AddError("DB_MAX_OPEN_CONNS", strconv.Itoa(c.DBMaxOpenConns), "max open connections must be between 1 and 1000")
	}
	if c.DBMaxIdleConns < 0 || c.DBMaxIdleConns > c.DBMaxOpenConns {
		validator.AddError("DB_MAX_IDLE_CONNS", strconv.Itoa(c.DBMaxIdleConns), "max idle connections must be between 0 and max open connections")
	}
	if c.DBConnMaxLifetime < 1 || c.DBConnMaxLifetime > 60 {
		validator.AddError("DB_CONN_MAX_LIFETIME_MINUTES", strconv.Itoa(c.DBConnMaxLifetime), "connection max lifetime must be between 1 and 60 minutes")
	}
	if c.DBConnMaxIdleTime < 1 || c.DBConnMaxIdleTime > 30 {
		validator.AddError("DB_CONN_MAX_IDLE_TIME_MINUTES", strconv.Itoa(c.DBConnMaxIdleTime), "connection max idle time must be between 1 and 30 minutes")
	}
}

// checkDirectoryWritable creates the parent directory of filePath if needed
// and probes it with a temporary file.
func checkDirectoryWritable(filePath string) error {
	dir := filepath.Dir(filePath)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errs.NewValidation("config.checkDirectoryWritable", "cannot create directory", err)
		}
	}

	tempFile := filepath.Join(dir, fmt.Sprintf(".write_test_%d", os.Getpid()))
	file, err := os.Create(tempFile)
	if err != nil {
		return errs.NewValidation("config.checkDirectoryWritable", "directory is not writable", err)
	}
	file.Close()
	os.Remove(tempFile)

	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// GetConfigSummary returns a summary of the configuration (excluding sensitive data)
func (c *Config) GetConfigSummary() map[string]interface{} {
	return map[string]interface{}{
		"port":          c.Port,
		"worker_count":  c.WorkerCount,
		"queue_size":    c.QueueSize,
		"output_sink":   c.OutputSink,
		"output_path":   c.OutputPath,
		"adapter_table": c.AdapterTablePath,
		"database_url":  maskString(c.DatabaseURL, 8),
		"redis_addr":    c.RedisAddr,
		"log_level":     c.LogLevel,
		"log_format":    c.LogFormat,
	}
}

// maskString masks sensitive strings for logging/display
func maskString(s string, keepFirst int) string {
	if s == "" {
		return ""
	}
	if len(s) <= keepFirst {
		return strings.Repeat("*", len(s))
	}
	return s[:keepFirst] + strings.Repeat("*", len(s)-keepFirst)
}
