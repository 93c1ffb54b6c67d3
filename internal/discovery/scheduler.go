package discovery

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/keymapio/keymap/internal/config"
	"github.com/keymapio/keymap/internal/logger"
	"github.com/keymapio/keymap/internal/types"
)

// progressEvery controls how often window-completion progress is logged.
const progressEvery = 10

// WindowStats counts window scans for one day/tenant scope.
type WindowStats struct {
	Attempted int
	Succeeded int
}

// DayResult is the merged outcome of scanning every window of one calendar
// day for one tenant. The key sets are the union of all windows that
// succeeded; failed windows contribute nothing.
type DayResult struct {
	IntKeys   types.KeySet
	FloatKeys types.KeySet
	Stats     WindowStats
}

// DayScanner decomposes one calendar day into uniform windows and runs the
// WindowScanner over all of them concurrently with a bounded worker pool.
// Completion order is irrelevant: results are merged via set union after all
// workers finish, which is commutative and idempotent.
type DayScanner struct {
	scanner       WindowScanner
	pool          pond.ResultPool[*WindowResult]
	windowMinutes int
	logger        *logger.Logger
}

// NewDayScanner validates the window configuration and creates a scheduler
// with a worker pool of the given size.
func NewDayScanner(scanner WindowScanner, windowMinutes, maxWorkers int, log *logger.Logger) (*DayScanner, error) {
	if scanner == nil {
		return nil, fmt.Errorf("window scanner is nil")
	}
	if err := config.ValidateWindowMinutes(windowMinutes); err != nil {
		return nil, err
	}
	if maxWorkers <= 0 {
		return nil, fmt.Errorf("max workers must be positive, got %d", maxWorkers)
	}
	if log == nil {
		log = logger.NewDefault()
	}

	return &DayScanner{
		scanner:       scanner,
		pool:          pond.NewResultPool[*WindowResult](maxWorkers),
		windowMinutes: windowMinutes,
		logger:        log,
	}, nil
}

// ScanDay scans every window of the day for the tenant and merges the partial
// key sets into one per-day result.
//
// A window that fails is logged and skipped; the day's result is the union of
// the windows that succeeded. One window's failure never cancels sibling
// in-flight windows. A day where every window fails yields an empty key set,
// which the caller may treat as a warning.
func (d *DayScanner) ScanDay(ctx context.Context, tenantID int64, day time.Time) (*DayResult, error) {
	windows, err := WindowsForDay(day, d.windowMinutes)
	if err != nil {
		return nil, err
	}

	log := d.logger.WithTenant(tenantID).WithDay(FormatDay(day))
	log.Infow("Scanning day",
		"windows", len(windows),
		"window_minutes", d.windowMinutes,
	)

	start := time.Now()
	var completed atomic.Int64

	group := d.pool.NewGroupContext(ctx)
	for _, w := range windows {
		w := w
		group.SubmitErr(func() (*WindowResult, error) {
			res, scanErr := d.scanner.ScanWindow(ctx, tenantID, w)

			done := completed.Add(1)
			if done%progressEvery == 0 || int(done) == len(windows) {
				log.Infof("Window progress: %d/%d complete", done, len(windows))
			}

			if scanErr != nil {
				// Partial failure: skip the window, keep the day alive.
				log.Warnw("Window scan failed, skipping",
					"window", w.String(),
					"error", scanErr,
				)
				return nil, nil
			}
			return res, nil
		})
	}

	results, err := group.Wait()
	if err != nil {
		// Only context cancellation surfaces here; scan failures are soft.
		return nil, fmt.Errorf("day scan interrupted: %w", err)
	}

	// Single-threaded merge: workers return immutable results, so the union
	// needs no locking.
	dayResult := &DayResult{
		IntKeys:   make(types.KeySet),
		FloatKeys: make(types.KeySet),
		Stats:     WindowStats{Attempted: len(windows)},
	}
	for _, res := range results {
		if res == nil {
			continue
		}
		dayResult.Stats.Succeeded++
		dayResult.IntKeys.Union(res.IntKeys)
		dayResult.FloatKeys.Union(res.FloatKeys)
	}

	if dayResult.Stats.Succeeded == 0 {
		log.Warnw("No window scan succeeded for this day; key coverage is empty",
			"attempted", dayResult.Stats.Attempted,
		)
	}

	log.Infow("Day scan complete",
		"windows_succeeded", dayResult.Stats.Succeeded,
		"windows_attempted", dayResult.Stats.Attempted,
		"int_keys", dayResult.IntKeys.Len(),
		"float_keys", dayResult.FloatKeys.Len(),
		"duration", time.Since(start),
	)

	return dayResult, nil
}

// Stop releases the worker pool. The scanner must not be used afterwards.
func (d *DayScanner) Stop() {
	d.pool.StopAndWait()
}
