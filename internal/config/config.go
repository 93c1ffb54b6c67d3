// Package config provides configuration structures and loading for keymap.
package config

// Config represents the complete application configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source" mapstructure:"source"`
	Table     TableConfig     `yaml:"table" mapstructure:"table"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// SourceConfig represents the ClickHouse connection configuration for the
// source analytics table.
type SourceConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TimeoutSeconds     int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// TableConfig describes the physical layout of the source table: where the
// timestamp and tenant identifier live, and how the sparse Map metric-group
// columns are named. Group columns are <prefix>1 .. <prefix>N per value kind.
type TableConfig struct {
	Name             string `yaml:"name" mapstructure:"name"`
	TimestampColumn  string `yaml:"timestamp_column" mapstructure:"timestamp_column"`
	TenantColumn     string `yaml:"tenant_column" mapstructure:"tenant_column"`
	IntGroupPrefix   string `yaml:"int_group_prefix" mapstructure:"int_group_prefix"`
	FloatGroupPrefix string `yaml:"float_group_prefix" mapstructure:"float_group_prefix"`
	GroupCount       int    `yaml:"group_count" mapstructure:"group_count"`
}

// DiscoveryConfig represents key discovery settings: how a day is chunked,
// how many window scans run in parallel, which days to cover, and which
// tenants to include (empty list means discover all active tenants).
type DiscoveryConfig struct {
	WindowMinutes int     `yaml:"window_minutes" mapstructure:"window_minutes"`
	MaxWorkers    int     `yaml:"max_workers" mapstructure:"max_workers"`
	Date          string  `yaml:"date" mapstructure:"date"`
	DateStart     string  `yaml:"date_start" mapstructure:"date_start"`
	DateEnd       string  `yaml:"date_end" mapstructure:"date_end"`
	Tenants       []int64 `yaml:"tenants" mapstructure:"tenants"`
}

// OutputConfig represents where the mapping document is written and an
// optional existing document whose key sets seed the run. Re-discovery
// merges by set union, so re-scanning an already covered day is idempotent.
type OutputConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
	Base string `yaml:"base" mapstructure:"base"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Port:               9000,
			User:               "default",
			Database:           "default",
			TimeoutSeconds:     300,
			MaxConnections:     16,
			MaxIdleConnections: 4,
		},
		Table: TableConfig{
			TimestampColumn:  "timestampMs",
			TenantColumn:     "customerId",
			IntGroupPrefix:   "metricIntGroup",
			FloatGroupPrefix: "metricFloatGroup",
			GroupCount:       15,
		},
		Discovery: DiscoveryConfig{
			WindowMinutes: 120,
			MaxWorkers:    8,
		},
		Output: OutputConfig{
			Path: "output/mappings/key_mapping.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}
