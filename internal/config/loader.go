package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := DefaultConfig()

	// Unmarshal into config struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Perform environment variable substitution
	substituteEnvVars(cfg)

	return cfg, nil
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) {
	cfg.Source.Host = expandEnvVar(cfg.Source.Host)
	cfg.Source.User = expandEnvVar(cfg.Source.User)
	cfg.Source.Password = expandEnvVar(cfg.Source.Password)
	cfg.Source.Database = expandEnvVar(cfg.Source.Database)

	cfg.Table.Name = expandEnvVar(cfg.Table.Name)

	cfg.Output.Path = expandEnvVar(cfg.Output.Path)
	cfg.Output.Base = expandEnvVar(cfg.Output.Base)

	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		c.Logging.Format = o.LogFormat
	}
	if o.WindowMinutes > 0 {
		c.Discovery.WindowMinutes = o.WindowMinutes
	}
	if o.MaxWorkers > 0 {
		c.Discovery.MaxWorkers = o.MaxWorkers
	}
	if o.Date != "" {
		c.Discovery.Date = o.Date
		c.Discovery.DateStart = ""
		c.Discovery.DateEnd = ""
	}
	if o.DateStart != "" {
		c.Discovery.DateStart = o.DateStart
		c.Discovery.Date = ""
	}
	if o.DateEnd != "" {
		c.Discovery.DateEnd = o.DateEnd
		c.Discovery.Date = ""
	}
	if len(o.Tenants) > 0 {
		c.Discovery.Tenants = o.Tenants
	}
	if o.Output != "" {
		c.Output.Path = o.Output
	}
	if o.Base != "" {
		c.Output.Base = o.Base
	}
}

// Overrides contains CLI flag values that override config file settings.
type Overrides struct {
	LogLevel      string
	LogFormat     string
	WindowMinutes int
	MaxWorkers    int
	Date          string
	DateStart     string
	DateEnd       string
	Tenants       []int64
	Output        string
	Base          string
}
