package discovery

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keymapio/keymap/internal/logger"
	"github.com/keymapio/keymap/internal/types"
)

// fakeWindowScanner returns keys derived from the window start hour, and
// fails for any window whose start hour is in failHours.
type fakeWindowScanner struct {
	mu        sync.Mutex
	calls     int
	failHours map[int]bool
}

func (f *fakeWindowScanner) ScanWindow(ctx context.Context, tenantID int64, w Window) (*WindowResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.failHours[w.Start.Hour()] {
		return nil, fmt.Errorf("simulated failure at hour %d", w.Start.Hour())
	}

	return &WindowResult{
		IntKeys:   types.NewKeySet(fmt.Sprintf("int_key_h%02d", w.Start.Hour()), "common_int"),
		FloatKeys: types.NewKeySet(fmt.Sprintf("float_key_h%02d", w.Start.Hour())),
	}, nil
}

func (f *fakeWindowScanner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestNewDayScanner_Validation(t *testing.T) {
	scanner := &fakeWindowScanner{}

	_, err := NewDayScanner(nil, 120, 4, logger.NewDefault())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scanner is nil")

	_, err = NewDayScanner(scanner, 90, 4, logger.NewDefault())
	assert.Error(t, err, "window size must pass day-tiling validation")

	_, err = NewDayScanner(scanner, 120, 0, logger.NewDefault())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max workers")

	ds, err := NewDayScanner(scanner, 120, 4, nil)
	assert.NoError(t, err)
	require.NotNil(t, ds)
	ds.Stop()
}

func TestScanDayMergesAllWindows(t *testing.T) {
	scanner := &fakeWindowScanner{}
	ds, err := NewDayScanner(scanner, 120, 4, logger.NewDefault())
	require.NoError(t, err)
	defer ds.Stop()

	day := mustParseDay(t, "2026-08-20")
	result, err := ds.ScanDay(context.Background(), 1042, day)
	require.NoError(t, err)

	assert.Equal(t, 12, result.Stats.Attempted)
	assert.Equal(t, 12, result.Stats.Succeeded)
	assert.Equal(t, 12, scanner.callCount())

	// 12 per-window int keys plus the shared one; 12 float keys.
	assert.Equal(t, 13, result.IntKeys.Len())
	assert.Equal(t, 12, result.FloatKeys.Len())
	assert.True(t, result.IntKeys.Contains("common_int"))
	assert.True(t, result.IntKeys.Contains("int_key_h22"))
	assert.True(t, result.FloatKeys.Contains("float_key_h00"))
}

func TestScanDaySkipsFailedWindows(t *testing.T) {
	// Two of twelve windows fail; the day result is the union of the rest.
	scanner := &fakeWindowScanner{failHours: map[int]bool{4: true, 16: true}}
	ds, err := NewDayScanner(scanner, 120, 4, logger.NewDefault())
	require.NoError(t, err)
	defer ds.Stop()

	day := mustParseDay(t, "2026-08-20")
	result, err := ds.ScanDay(context.Background(), 1042, day)
	require.NoError(t, err, "a failed window must not fail the day")

	assert.Equal(t, 12, result.Stats.Attempted)
	assert.Equal(t, 10, result.Stats.Succeeded)

	assert.False(t, result.IntKeys.Contains("int_key_h04"))
	assert.False(t, result.IntKeys.Contains("int_key_h16"))
	assert.True(t, result.IntKeys.Contains("int_key_h06"))
	assert.Equal(t, 11, result.IntKeys.Len())
}

func TestScanDayAllWindowsFail(t *testing.T) {
	fail := make(map[int]bool)
	for h := 0; h < 24; h++ {
		fail[h] = true
	}
	scanner := &fakeWindowScanner{failHours: fail}
	ds, err := NewDayScanner(scanner, 120, 2, logger.NewDefault())
	require.NoError(t, err)
	defer ds.Stop()

	day := mustParseDay(t, "2026-08-20")
	result, err := ds.ScanDay(context.Background(), 1042, day)
	require.NoError(t, err, "even a fully failed day returns a result, not an error")

	assert.Equal(t, 0, result.Stats.Succeeded)
	assert.Equal(t, 0, result.IntKeys.Len())
	assert.Equal(t, 0, result.FloatKeys.Len())
}

func TestScanDayCancelledContext(t *testing.T) {
	scanner := &fakeWindowScanner{}
	ds, err := NewDayScanner(scanner, 120, 2, logger.NewDefault())
	require.NoError(t, err)
	defer ds.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	day := mustParseDay(t, "2026-08-20")
	_, err = ds.ScanDay(ctx, 1042, day)
	assert.Error(t, err)
}

func TestScanDayRejectsBadWindowSize(t *testing.T) {
	scanner := &fakeWindowScanner{}
	ds := &DayScanner{
		scanner:       scanner,
		windowMinutes: 7,
		logger:        logger.NewDefault(),
	}

	day := mustParseDay(t, "2026-08-20")
	_, err := ds.ScanDay(context.Background(), 1042, day)
	assert.Error(t, err)
}
