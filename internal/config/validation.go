package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the calendar-day format accepted everywhere a day is configured.
const DateLayout = "2006-01-02"

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
// All configuration errors are reported before any scan begins.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateSource()...)
	errors = append(errors, c.validateTable()...)
	errors = append(errors, c.validateDiscovery()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateSource() ValidationErrors {
	var errors ValidationErrors

	if c.Source.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "source.host",
			Message: "host is required",
		})
	}

	if c.Source.Port <= 0 || c.Source.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "source.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if c.Source.User == "" {
		errors = append(errors, ValidationError{
			Field:   "source.user",
			Message: "user is required",
		})
	}

	if c.Source.TimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "source.timeout_seconds",
			Message: "timeout_seconds cannot be negative",
		})
	}

	if c.Source.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "source.max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	if c.Source.MaxIdleConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "source.max_idle_connections",
			Message: "max_idle_connections cannot be negative",
		})
	}

	return errors
}

// identifierPattern matches a bare column or table identifier. Table names may
// additionally carry a single database qualifier ("db.table").
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

func validTableName(name string) bool {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return false
	}
	for _, p := range parts {
		if !validIdentifier(p) {
			return false
		}
	}
	return true
}

func (c *Config) validateTable() ValidationErrors {
	var errors ValidationErrors

	if c.Table.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "table.name",
			Message: "source table name is required",
		})
	} else if !validTableName(c.Table.Name) {
		errors = append(errors, ValidationError{
			Field:   "table.name",
			Message: "table name must be an identifier, optionally qualified as db.table",
		})
	}

	for field, col := range map[string]string{
		"table.timestamp_column":   c.Table.TimestampColumn,
		"table.tenant_column":      c.Table.TenantColumn,
		"table.int_group_prefix":   c.Table.IntGroupPrefix,
		"table.float_group_prefix": c.Table.FloatGroupPrefix,
	} {
		if col == "" {
			errors = append(errors, ValidationError{Field: field, Message: "is required"})
		} else if !validIdentifier(col) {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: "must contain only alphanumeric characters and underscores",
			})
		}
	}

	if c.Table.GroupCount <= 0 || c.Table.GroupCount > 64 {
		errors = append(errors, ValidationError{
			Field:   "table.group_count",
			Message: "group_count must be between 1 and 64",
		})
	}

	return errors
}

// ValidateWindowMinutes checks the day-tiling constraints: windows must tile a
// day exactly (divide 1440), and windows of an hour or more must stay aligned
// to clock hours (multiple of 60).
func ValidateWindowMinutes(minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("window_minutes must be positive, got %d", minutes)
	}
	if 1440%minutes != 0 {
		return fmt.Errorf("window_minutes must evenly divide 1440 (minutes per day), got %d", minutes)
	}
	if minutes >= 60 && minutes%60 != 0 {
		return fmt.Errorf("window_minutes >= 60 must be a multiple of 60, got %d", minutes)
	}
	return nil
}

func (c *Config) validateDiscovery() ValidationErrors {
	var errors ValidationErrors

	if err := ValidateWindowMinutes(c.Discovery.WindowMinutes); err != nil {
		errors = append(errors, ValidationError{
			Field:   "discovery.window_minutes",
			Message: err.Error(),
		})
	}

	if c.Discovery.MaxWorkers <= 0 {
		errors = append(errors, ValidationError{
			Field:   "discovery.max_workers",
			Message: "max_workers must be positive",
		})
	} else if c.Source.MaxConnections > 0 && c.Discovery.MaxWorkers > c.Source.MaxConnections {
		errors = append(errors, ValidationError{
			Field:   "discovery.max_workers",
			Message: "max_workers cannot exceed source.max_connections (each window scan pins a connection)",
		})
	}

	errors = append(errors, c.validateDates()...)

	for i, tenant := range c.Discovery.Tenants {
		if tenant <= 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("discovery.tenants[%d]", i),
				Message: "tenant id must be positive",
			})
		}
	}

	return errors
}

func (c *Config) validateDates() ValidationErrors {
	var errors ValidationErrors
	d := c.Discovery

	hasSingle := d.Date != ""
	hasRange := d.DateStart != "" || d.DateEnd != ""

	switch {
	case !hasSingle && !hasRange:
		errors = append(errors, ValidationError{
			Field:   "discovery.date",
			Message: "either date (single day) or date_start/date_end (range) is required",
		})
	case hasSingle && hasRange:
		errors = append(errors, ValidationError{
			Field:   "discovery.date",
			Message: "date and date_start/date_end are mutually exclusive",
		})
	case hasSingle:
		if _, err := time.Parse(DateLayout, d.Date); err != nil {
			errors = append(errors, ValidationError{
				Field:   "discovery.date",
				Message: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", d.Date),
			})
		}
	default:
		if d.DateStart == "" || d.DateEnd == "" {
			errors = append(errors, ValidationError{
				Field:   "discovery.date_start",
				Message: "both date_start and date_end are required for a range",
			})
			return errors
		}
		start, errStart := time.Parse(DateLayout, d.DateStart)
		end, errEnd := time.Parse(DateLayout, d.DateEnd)
		if errStart != nil {
			errors = append(errors, ValidationError{
				Field:   "discovery.date_start",
				Message: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", d.DateStart),
			})
		}
		if errEnd != nil {
			errors = append(errors, ValidationError{
				Field:   "discovery.date_end",
				Message: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", d.DateEnd),
			})
		}
		if errStart == nil && errEnd == nil && end.Before(start) {
			errors = append(errors, ValidationError{
				Field:   "discovery.date_end",
				Message: "date_end must not be before date_start",
			})
		}
	}

	return errors
}

func (c *Config) validateOutput() ValidationErrors {
	var errors ValidationErrors

	if c.Output.Path == "" {
		errors = append(errors, ValidationError{
			Field:   "output.path",
			Message: "output path is required",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
