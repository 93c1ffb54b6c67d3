package discovery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keymapio/keymap/internal/config"
	"github.com/keymapio/keymap/internal/logger"
	"github.com/keymapio/keymap/internal/types"
)

type fakeTenantSource struct {
	tenants map[string][]int64
	err     error
}

func (f *fakeTenantSource) ActiveTenants(ctx context.Context, day time.Time) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tenants[FormatDay(day)], nil
}

type fakeDaySource struct {
	results  map[string]*DayResult // "tenant/day" -> result
	failures map[string]error
	calls    []string
}

func dayKey(tenantID int64, day time.Time) string {
	return fmt.Sprintf("%d/%s", tenantID, FormatDay(day))
}

func (f *fakeDaySource) ScanDay(ctx context.Context, tenantID int64, day time.Time) (*DayResult, error) {
	key := dayKey(tenantID, day)
	f.calls = append(f.calls, key)
	if err := f.failures[key]; err != nil {
		return nil, err
	}
	if res, ok := f.results[key]; ok {
		return res, nil
	}
	return &DayResult{
		IntKeys:   make(types.KeySet),
		FloatKeys: make(types.KeySet),
		Stats:     WindowStats{Attempted: 12, Succeeded: 12},
	}, nil
}

func dayResult(succeeded int, intKeys ...string) *DayResult {
	return &DayResult{
		IntKeys:   types.NewKeySet(intKeys...),
		FloatKeys: make(types.KeySet),
		Stats:     WindowStats{Attempted: 12, Succeeded: succeeded},
	}
}

func testRunner(t *testing.T, cfg *config.Config, ts TenantSource, ds DaySource) *Runner {
	t.Helper()
	days, err := DaysFor(cfg.Discovery)
	require.NoError(t, err)
	return &Runner{
		cfg:          cfg,
		tenantSource: ts,
		daySource:    ds,
		days:         days,
		logger:       logger.NewDefault(),
		accum:        make(map[int64]*types.TenantKeys),
	}
}

func rangeConfig(start, end string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Discovery.DateStart = start
	cfg.Discovery.DateEnd = end
	return cfg
}

func TestRunAccumulatesAcrossDays(t *testing.T) {
	cfg := rangeConfig("2026-08-20", "2026-08-21")
	ts := &fakeTenantSource{tenants: map[string][]int64{
		"2026-08-20": {7},
		"2026-08-21": {7},
	}}
	ds := &fakeDaySource{results: map[string]*DayResult{
		"7/2026-08-20": dayResult(12, "alpha", "beta"),
		"7/2026-08-21": dayResult(12, "beta", "gamma"),
	}}

	r := testRunner(t, cfg, ts, ds)
	result, err := r.Run(context.Background())
	require.NoError(t, err)

	tk := result.Tenants[7]
	require.NotNil(t, tk)
	assert.ElementsMatch(t, []string{"alpha", "beta", "gamma"}, tk.IntKeys.Sorted(),
		"keys from both days must union")
	assert.Equal(t, []string{"2026-08-20", "2026-08-21"}, result.Days)
	assert.Equal(t, 2, result.Stats.DaysProcessed)
	assert.Equal(t, 24, result.Stats.WindowsSucceeded)
}

func TestRunTenantFilter(t *testing.T) {
	cfg := rangeConfig("2026-08-20", "2026-08-20")
	cfg.Discovery.Tenants = []int64{7, 500}
	ts := &fakeTenantSource{tenants: map[string][]int64{
		"2026-08-20": {7, 9, 1042},
	}}
	ds := &fakeDaySource{}

	r := testRunner(t, cfg, ts, ds)
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	// Only tenant 7 is both requested and active; 500 is requested but
	// inactive, 9 and 1042 are active but not requested.
	assert.Equal(t, []string{"7/2026-08-20"}, ds.calls)
}

func TestRunSkipsFailedTenantDay(t *testing.T) {
	cfg := rangeConfig("2026-08-20", "2026-08-20")
	ts := &fakeTenantSource{tenants: map[string][]int64{
		"2026-08-20": {7, 9},
	}}
	ds := &fakeDaySource{
		results: map[string]*DayResult{
			"9/2026-08-20": dayResult(12, "only_nine"),
		},
		failures: map[string]error{
			"7/2026-08-20": errors.New("connection reset"),
		},
	}

	r := testRunner(t, cfg, ts, ds)
	result, err := r.Run(context.Background())
	require.NoError(t, err, "a failed tenant-day must not fail the run")

	assert.Nil(t, result.Tenants[7], "failed tenant contributes nothing")
	require.NotNil(t, result.Tenants[9])
	assert.True(t, result.Tenants[9].IntKeys.Contains("only_nine"))
}

func TestRunSkipsDayWhenTenantScanFails(t *testing.T) {
	cfg := rangeConfig("2026-08-20", "2026-08-21")
	ts := &fakeTenantSource{err: errors.New("table unavailable")}
	ds := &fakeDaySource{}

	r := testRunner(t, cfg, ts, ds)
	_, err := r.Run(context.Background())

	// Every day was skipped, so nothing was ever scanned.
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNothingDiscovered))
	assert.Empty(t, ds.calls)
}

func TestRunSkipsDayWithNoActiveTenants(t *testing.T) {
	cfg := rangeConfig("2026-08-20", "2026-08-21")
	ts := &fakeTenantSource{tenants: map[string][]int64{
		"2026-08-21": {7},
	}}
	ds := &fakeDaySource{results: map[string]*DayResult{
		"7/2026-08-21": dayResult(12, "late_key"),
	}}

	r := testRunner(t, cfg, ts, ds)
	result, err := r.Run(context.Background())
	require.NoError(t, err, "an empty day is skipped, not fatal")

	assert.Equal(t, []string{"7/2026-08-21"}, ds.calls)
	assert.Equal(t, 2, result.Stats.DaysProcessed)
	assert.True(t, result.Tenants[7].IntKeys.Contains("late_key"))
}

func TestRunFailsWhenNothingSucceeded(t *testing.T) {
	cfg := rangeConfig("2026-08-20", "2026-08-20")
	ts := &fakeTenantSource{tenants: map[string][]int64{
		"2026-08-20": {7},
	}}
	ds := &fakeDaySource{results: map[string]*DayResult{
		"7/2026-08-20": {
			IntKeys:   make(types.KeySet),
			FloatKeys: make(types.KeySet),
			Stats:     WindowStats{Attempted: 12, Succeeded: 0},
		},
	}}

	r := testRunner(t, cfg, ts, ds)
	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNothingDiscovered))
}

func TestRunCancelledContext(t *testing.T) {
	cfg := rangeConfig("2026-08-20", "2026-08-20")
	ts := &fakeTenantSource{tenants: map[string][]int64{"2026-08-20": {7}}}
	ds := &fakeDaySource{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := testRunner(t, cfg, ts, ds)
	_, err := r.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSeedMergesIntoAccumulator(t *testing.T) {
	cfg := rangeConfig("2026-08-20", "2026-08-20")
	ts := &fakeTenantSource{tenants: map[string][]int64{
		"2026-08-20": {7},
	}}
	ds := &fakeDaySource{results: map[string]*DayResult{
		"7/2026-08-20": dayResult(12, "fresh_key"),
	}}

	r := testRunner(t, cfg, ts, ds)

	seed := types.NewTenantKeys(7)
	seed.IntKeys.Add("seeded_key")
	stale := types.NewTenantKeys(99)
	stale.FloatKeys.Add("old_float")
	r.Seed(map[int64]*types.TenantKeys{7: seed, 99: stale})

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	tk := result.Tenants[7]
	require.NotNil(t, tk)
	assert.ElementsMatch(t, []string{"fresh_key", "seeded_key"}, tk.IntKeys.Sorted(),
		"seeded keys survive re-discovery")

	// A seeded tenant absent from the scanned days keeps its keys.
	require.NotNil(t, result.Tenants[99])
	assert.True(t, result.Tenants[99].FloatKeys.Contains("old_float"))
}

func TestNewRunnerResolvesDaysUpFront(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Discovery.Date = ""

	_, err := NewRunner(cfg, nil, logger.NewDefault())
	assert.Error(t, err, "missing day selection must fail before any scan")
}
