package discovery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/keymapio/keymap/internal/config"
	"github.com/keymapio/keymap/internal/logger"
	"github.com/keymapio/keymap/internal/types"
)

// ErrNothingDiscovered is returned when not a single window scan succeeded
// anywhere in the run. A mapping must never be persisted from a run that
// discovered nothing.
var ErrNothingDiscovered = errors.New("no window scan succeeded anywhere in the run")

// DaySource scans all windows of one day for one tenant.
type DaySource interface {
	ScanDay(ctx context.Context, tenantID int64, day time.Time) (*DayResult, error)
}

// RunResult is the outcome of a full discovery run: the accumulated
// per-tenant key sets plus coverage statistics.
type RunResult struct {
	Tenants map[int64]*types.TenantKeys
	Days    []string
	Stats   types.ScanStats
}

// Runner orchestrates discovery across the configured day range and tenant
// set. Days and tenants are processed sequentially; concurrency is scoped to
// within-day window scans, which caps total concurrent connections at the
// worker pool size.
type Runner struct {
	cfg          *config.Config
	tenantSource TenantSource
	daySource    DaySource
	days         []time.Time
	logger       *logger.Logger

	// seeded key sets from a base mapping; accumulation only ever grows
	// these by union, which keeps re-discovery idempotent.
	accum map[int64]*types.TenantKeys
}

// NewRunner creates a discovery runner wired to the source database. All
// configuration errors (window size, day range) surface here, before any
// scan begins.
func NewRunner(cfg *config.Config, db *sql.DB, log *logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	days, err := DaysFor(cfg.Discovery)
	if err != nil {
		return nil, err
	}

	scanner, err := NewKeyScanner(db, cfg.Table, log)
	if err != nil {
		return nil, err
	}
	dayScanner, err := NewDayScanner(scanner, cfg.Discovery.WindowMinutes, cfg.Discovery.MaxWorkers, log)
	if err != nil {
		return nil, err
	}
	lister, err := NewTenantLister(db, cfg.Table, log)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:          cfg,
		tenantSource: lister,
		daySource:    dayScanner,
		days:         days,
		logger:       log,
		accum:        make(map[int64]*types.TenantKeys),
	}, nil
}

// Seed preloads the accumulator with key sets from an existing mapping
// document, so an extended day range merges into prior coverage instead of
// starting from scratch.
func (r *Runner) Seed(tenants map[int64]*types.TenantKeys) {
	for id, tk := range tenants {
		existing := r.tenantKeys(id)
		existing.IntKeys.Union(tk.IntKeys)
		existing.FloatKeys.Union(tk.FloatKeys)
	}
}

// Days returns the resolved day list for this run.
func (r *Runner) Days() []time.Time {
	return r.days
}

// Close releases the worker pool backing the day scanner.
func (r *Runner) Close() {
	if ds, ok := r.daySource.(*DayScanner); ok {
		ds.Stop()
	}
}

func (r *Runner) tenantKeys(id int64) *types.TenantKeys {
	tk, ok := r.accum[id]
	if !ok {
		tk = types.NewTenantKeys(id)
		r.accum[id] = tk
	}
	return tk
}

// tenantsForDay resolves which tenants to scan on a day: the active set from
// the coarse scan, optionally intersected with the configured explicit list.
func (r *Runner) tenantsForDay(ctx context.Context, day time.Time) ([]int64, error) {
	active, err := r.tenantSource.ActiveTenants(ctx, day)
	if err != nil {
		return nil, err
	}

	filter := r.cfg.Discovery.Tenants
	if len(filter) == 0 {
		return active, nil
	}

	activeSet := make(map[int64]bool, len(active))
	for _, id := range active {
		activeSet[id] = true
	}

	var selected []int64
	for _, id := range filter {
		if activeSet[id] {
			selected = append(selected, id)
		} else {
			r.logger.Warnw("Requested tenant not active on day, skipping",
				"tenant", id,
				"day", FormatDay(day),
			)
		}
	}
	return selected, nil
}

// Run executes discovery over every configured day and tenant, accumulating
// a running union of keys per tenant.
//
// Per-day and per-tenant failures are recoverable: they are logged and
// skipped, and the final key sets reflect only successfully scanned
// coverage. The run fails hard only when zero window scans succeeded
// anywhere, or on context cancellation.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()

	result := &RunResult{
		Tenants: r.accum,
	}

	for _, day := range r.days {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discovery interrupted: %w", err)
		}

		dayStr := FormatDay(day)
		result.Days = append(result.Days, dayStr)
		result.Stats.DaysProcessed++

		tenants, err := r.tenantsForDay(ctx, day)
		if err != nil {
			r.logger.Warnw("Tenant scan failed for day, skipping day",
				"day", dayStr,
				"error", err,
			)
			continue
		}
		if len(tenants) == 0 {
			r.logger.Warnw("No active tenants on day, skipping", "day", dayStr)
			continue
		}

		for _, tenantID := range tenants {
			dayResult, err := r.daySource.ScanDay(ctx, tenantID, day)
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("discovery interrupted: %w", err)
				}
				r.logger.Warnw("Day scan failed for tenant, skipping",
					"tenant", tenantID,
					"day", dayStr,
					"error", err,
				)
				continue
			}

			result.Stats.WindowsAttempted += dayResult.Stats.Attempted
			result.Stats.WindowsSucceeded += dayResult.Stats.Succeeded

			tk := r.tenantKeys(tenantID)
			before := tk.IntKeys.Len() + tk.FloatKeys.Len()
			tk.IntKeys.Union(dayResult.IntKeys)
			tk.FloatKeys.Union(dayResult.FloatKeys)

			r.logger.Infow("Tenant day complete",
				"tenant", tenantID,
				"day", dayStr,
				"int_keys_total", tk.IntKeys.Len(),
				"float_keys_total", tk.FloatKeys.Len(),
				"new_keys", tk.IntKeys.Len()+tk.FloatKeys.Len()-before,
			)
		}
	}

	result.Stats.TenantsSeen = len(result.Tenants)
	result.Stats.Duration = time.Since(start)

	if result.Stats.WindowsSucceeded == 0 {
		return nil, fmt.Errorf("%w: %d windows attempted over %d days",
			ErrNothingDiscovered, result.Stats.WindowsAttempted, result.Stats.DaysProcessed)
	}

	r.logger.Infow("Discovery run complete",
		"days", result.Stats.DaysProcessed,
		"tenants", result.Stats.TenantsSeen,
		"windows_succeeded", result.Stats.WindowsSucceeded,
		"windows_attempted", result.Stats.WindowsAttempted,
		"duration", result.Stats.Duration,
	)

	return result, nil
}
