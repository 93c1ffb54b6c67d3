package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keymapio/keymap/internal/discovery"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what a discovery run would scan without touching the database",
	Long: `Plan resolves the configured day range and window tiling and reports
the scan shape: days, windows per day, and queries per customer-day. No
database connection is made.

Example:
  keymap plan --config keymap.yaml --date-start 2026-08-18 --date-end 2026-08-20`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	days, err := discovery.DaysFor(cfg.Discovery)
	if err != nil {
		return err
	}
	windows, err := discovery.WindowsForDay(days[0], cfg.Discovery.WindowMinutes)
	if err != nil {
		return err
	}

	// One DISTINCT arrayJoin query per group column per kind, per window.
	queriesPerWindow := cfg.Table.GroupCount * 2
	queriesPerDay := queriesPerWindow * len(windows)

	cmd.Printf("\n=== Discovery Plan ===\n")
	cmd.Printf("Config file: %s\n", GetConfigFile())
	cmd.Printf("Source table: %s\n", qualifiedTable(cfg))
	cmd.Printf("Days: %d\n", len(days))
	for _, day := range days {
		cmd.Printf("  - %s\n", discovery.FormatDay(day))
	}
	cmd.Printf("Window size: %d minutes (%d windows/day)\n",
		cfg.Discovery.WindowMinutes, len(windows))
	cmd.Printf("Parallel window scans: %d\n", cfg.Discovery.MaxWorkers)
	cmd.Printf("Group columns: %d int + %d float\n",
		cfg.Table.GroupCount, cfg.Table.GroupCount)

	if len(cfg.Discovery.Tenants) > 0 {
		cmd.Printf("Tenants: %d (explicit list)\n", len(cfg.Discovery.Tenants))
	} else {
		cmd.Printf("Tenants: all active per day\n")
	}

	cmd.Printf("\nQueries per customer-day: %d (%d per window)\n", queriesPerDay, queriesPerWindow)
	cmd.Printf("Plus 1 tenant-listing query per day\n")
	cmd.Printf("Output: %s\n", cfg.Output.Path)
	if cfg.Output.Base != "" {
		cmd.Printf("Seed mapping: %s\n", cfg.Output.Base)
	}

	return nil
}
