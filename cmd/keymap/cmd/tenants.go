package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/keymapio/keymap/internal/database"
	"github.com/keymapio/keymap/internal/discovery"
	"github.com/keymapio/keymap/internal/logger"
)

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "List customers active on each configured day",
	Long: `Tenants runs only the coarse per-day customer scan: for each day in
the configured range it lists the distinct customer ids that have any rows,
without scanning metric keys.

Example:
  keymap tenants --config keymap.yaml --date 2026-08-20`,
	RunE: runTenants,
}

func init() {
	rootCmd.AddCommand(tenantsCmd)
}

func runTenants(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	days, err := discovery.DaysFor(cfg.Discovery)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dbManager := database.NewManager(cfg)
	if err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	defer dbManager.Close()

	lister, err := discovery.NewTenantLister(dbManager.Source, cfg.Table, log)
	if err != nil {
		return err
	}

	for _, day := range days {
		ids, err := lister.ActiveTenants(ctx, day)
		if err != nil {
			return fmt.Errorf("tenant scan failed for %s: %w", discovery.FormatDay(day), err)
		}

		cmd.Printf("%s: %d active customer(s)\n", discovery.FormatDay(day), len(ids))
		for _, id := range ids {
			cmd.Printf("  %d\n", id)
		}
	}

	return nil
}
