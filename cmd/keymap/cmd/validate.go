package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keymapio/keymap/internal/discovery"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate loads the configuration, applies CLI overrides, and runs
every validation check without connecting to the database.

Example:
  keymap validate --config keymap.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Printf("\n=== Configuration Validation ===\n")
	fmt.Printf("Config file: %s\n", GetConfigFile())
	fmt.Printf("Source: %s:%d/%s\n", cfg.Source.Host, cfg.Source.Port, cfg.Source.Database)
	fmt.Printf("Table: %s\n", cfg.Table.Name)

	if err := cfg.Validate(); err != nil {
		fmt.Printf("\n❌ Validation failed:\n%v\n", err)
		return fmt.Errorf("configuration is invalid")
	}

	days, err := discovery.DaysFor(cfg.Discovery)
	if err != nil {
		fmt.Printf("\n❌ Day range invalid: %v\n", err)
		return fmt.Errorf("configuration is invalid")
	}

	fmt.Printf("Days: %d (%s .. %s)\n", len(days),
		discovery.FormatDay(days[0]), discovery.FormatDay(days[len(days)-1]))
	fmt.Printf("Window: %d minutes, %d workers\n",
		cfg.Discovery.WindowMinutes, cfg.Discovery.MaxWorkers)
	fmt.Printf("Output: %s\n", cfg.Output.Path)

	fmt.Println("\n✅ Configuration is valid")
	return nil
}
