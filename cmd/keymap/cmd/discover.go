package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/keymapio/keymap/internal/config"
	"github.com/keymapio/keymap/internal/database"
	"github.com/keymapio/keymap/internal/discovery"
	"github.com/keymapio/keymap/internal/lock"
	"github.com/keymapio/keymap/internal/logger"
	"github.com/keymapio/keymap/internal/mapping"
	"github.com/keymapio/keymap/internal/report"
)

var discoverForce bool

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Scan the source table and generate the key mapping document",
	Long: `Discover scans the configured day range for every active customer,
enumerates the metric keys present in the Map group columns, assigns each
customer's keys to physical columns, and writes the mapping document.

The discovery process follows these steps:
  1. List active customers per day from a coarse full-day scan
  2. Scan each customer's day in parallel time windows
  3. Merge discovered keys into per-customer grow-only key sets
  4. Assign columns lexicographically and persist the mapping JSON

A failed window is logged and skipped; the run aborts only when no window
succeeded at all, so a transient failure never discards partial coverage.

Example:
  keymap discover --config keymap.yaml --date 2026-08-20`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverForce, "force", false,
		"Force execution even if the output lock is held (use with caution)")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
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

	log.Infow("Starting key discovery",
		"config", GetConfigFile(),
		"table", cfg.Table.Name,
		"output", cfg.Output.Path,
	)

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn("Received shutdown signal - stopping after in-flight windows...")
		cancel()
	}()

	// Guard the output path against a concurrent run
	if !discoverForce {
		outLock := lock.ForOutput(cfg.Output.Path)
		if err := outLock.Acquire(); err != nil {
			if errors.Is(err, lock.ErrLockHeld) {
				return fmt.Errorf("another discovery run is writing %s (use --force to override): %w",
					cfg.Output.Path, err)
			}
			return fmt.Errorf("failed to acquire output lock: %w", err)
		}
		defer outLock.Release()
		log.Infow("Acquired output lock", "lock", outLock.Path())
	} else {
		log.Warnw("Skipping output lock acquisition (--force flag used)", "output", cfg.Output.Path)
	}

	// Connect to the source database
	dbManager := database.NewManager(cfg)
	if err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Ping(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	runner, err := discovery.NewRunner(cfg, dbManager.Source, log)
	if err != nil {
		return fmt.Errorf("failed to create discovery runner: %w", err)
	}
	defer runner.Close()

	// Seed from an existing mapping so extended day ranges merge by union
	if cfg.Output.Base != "" {
		base, err := mapping.Load(cfg.Output.Base)
		if err != nil {
			return fmt.Errorf("failed to load base mapping: %w", err)
		}
		runner.Seed(base.TenantKeySets())
		log.Infow("Seeded key sets from base mapping",
			"base", cfg.Output.Base,
			"tenants", len(base.Customers),
		)
	}

	result, err := runner.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			log.Warn("Discovery cancelled by user")
			return nil
		}
		return fmt.Errorf("discovery failed: %w", err)
	}

	doc := mapping.Build(qualifiedTable(cfg), result.Tenants, result.Days, time.Now().UTC())
	if err := mapping.Save(cfg.Output.Path, doc); err != nil {
		return fmt.Errorf("failed to save mapping document: %w", err)
	}
	log.Infow("Mapping document written", "path", cfg.Output.Path)

	report.WriteRunSummary(cmd.OutOrStdout(), result)
	report.WriteMappingSummary(cmd.OutOrStdout(), doc)
	return nil
}

// qualifiedTable returns the table reference recorded in document metadata.
// A table name that already carries a database qualifier is kept as-is.
func qualifiedTable(cfg *config.Config) string {
	if cfg.Source.Database != "" && !strings.Contains(cfg.Table.Name, ".") {
		return cfg.Source.Database + "." + cfg.Table.Name
	}
	return cfg.Table.Name
}
