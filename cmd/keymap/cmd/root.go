package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/keymapio/keymap/internal/config"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile    string
	logLevel   string
	logFormat  string
	windowMins int
	maxWorkers int
	date       string
	dateStart  string
	dateEnd    string
	tenants    []int64
	output     string
	baseFile   string
)

var rootCmd = &cobra.Command{
	Use:   "keymap",
	Short: "Metric Key Discovery & Schema Mapping",
	Long: `A CLI tool that scans a ClickHouse analytics table for the metric keys
each customer actually uses, and generates the key-to-column mapping document
that drives schema generation, row transformation, and query translation.

Features:
  - Time-chunked parallel scanning of sparse Map metric columns
  - Per-customer stable lexicographic key-to-column assignment
  - Incremental re-discovery seeded from an existing mapping
  - Partial-failure tolerance: a failed window never aborts the run`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "keymap.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Discovery overrides
	rootCmd.PersistentFlags().IntVar(&windowMins, "window-mins", 0,
		"Override window size in minutes (must tile a day exactly)")
	rootCmd.PersistentFlags().IntVar(&maxWorkers, "max-workers", 0,
		"Override parallel window scan count")
	rootCmd.PersistentFlags().StringVar(&date, "date", "",
		"Override single day to scan (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&dateStart, "date-start", "",
		"Override first day of scan range (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&dateEnd, "date-end", "",
		"Override last day of scan range (YYYY-MM-DD)")
	rootCmd.PersistentFlags().Int64SliceVar(&tenants, "tenants", nil,
		"Restrict discovery to these tenant ids (default: all active)")

	// Output overrides
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "",
		"Override mapping output path")
	rootCmd.PersistentFlags().StringVar(&baseFile, "base", "",
		"Existing mapping document whose key sets seed this run")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// GetOverrides returns the CLI flag override values
func GetOverrides() config.Overrides {
	return config.Overrides{
		LogLevel:      logLevel,
		LogFormat:     logFormat,
		WindowMinutes: windowMins,
		MaxWorkers:    maxWorkers,
		Date:          date,
		DateStart:     dateStart,
		DateEnd:       dateEnd,
		Tenants:       tenants,
		Output:        output,
		Base:          baseFile,
	}
}

// loadConfig loads the config file and applies CLI overrides, the shared
// front half of every command that reads configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, err
	}
	cfg.ApplyOverrides(GetOverrides())
	return cfg, nil
}
