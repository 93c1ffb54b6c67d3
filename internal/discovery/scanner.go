package discovery

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/keymapio/keymap/internal/config"
	"github.com/keymapio/keymap/internal/logger"
	"github.com/keymapio/keymap/internal/sqlutil"
	"github.com/keymapio/keymap/internal/types"
)

// Kind distinguishes the two families of sparse metric-group columns.
type Kind string

const (
	KindInt   Kind = "int"
	KindFloat Kind = "float"
)

// WindowResult is the immutable result of scanning one window for one tenant.
// Workers return it to the scheduler, which merges results single-threadedly,
// so no locking is needed on the accumulating key sets.
type WindowResult struct {
	IntKeys   types.KeySet
	FloatKeys types.KeySet
}

// WindowScanner enumerates the distinct Map keys a tenant used inside one
// time window. Implementations must be safe for concurrent use: the scheduler
// invokes ScanWindow from multiple workers at once.
type WindowScanner interface {
	ScanWindow(ctx context.Context, tenantID int64, w Window) (*WindowResult, error)
}

// KeyScanner is the ClickHouse-backed WindowScanner. For each metric-group
// slot it issues one key-enumeration query that deduplicates server-side, so
// only the distinct key set ever crosses the wire; per-row key arrays are
// never materialized in process memory. Each ScanWindow call pins its own
// connection from the pool, keeping workers independent under concurrency.
type KeyScanner struct {
	db     *sql.DB
	layout config.TableConfig
	logger *logger.Logger
}

// NewKeyScanner creates a scanner over the given source table layout.
func NewKeyScanner(db *sql.DB, layout config.TableConfig, log *logger.Logger) (*KeyScanner, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if layout.GroupCount <= 0 {
		return nil, fmt.Errorf("group count must be positive, got %d", layout.GroupCount)
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &KeyScanner{
		db:     db,
		layout: layout,
		logger: log,
	}, nil
}

// GroupColumn returns the physical column name for a metric-group slot.
// Slots are 1-based, mirroring the source schema (<prefix>1 .. <prefix>N).
func (s *KeyScanner) GroupColumn(kind Kind, slot int) string {
	prefix := s.layout.IntGroupPrefix
	if kind == KindFloat {
		prefix = s.layout.FloatGroupPrefix
	}
	return fmt.Sprintf("%s%d", prefix, slot)
}

// ScanWindow enumerates the distinct keys present for the tenant in the
// window, across every int-kind and float-kind metric-group slot. The window
// must have positive wall-clock width.
func (s *KeyScanner) ScanWindow(ctx context.Context, tenantID int64, w Window) (*WindowResult, error) {
	if !w.End.After(w.Start) {
		return nil, fmt.Errorf("window end %s must be after start %s", w.End, w.Start)
	}

	// One connection per scan call; released when the scan finishes.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain scan connection: %w", err)
	}
	defer conn.Close()

	result := &WindowResult{
		IntKeys:   make(types.KeySet),
		FloatKeys: make(types.KeySet),
	}

	for slot := 1; slot <= s.layout.GroupCount; slot++ {
		if err := s.scanSlot(ctx, conn, KindInt, slot, tenantID, w, result.IntKeys); err != nil {
			return nil, err
		}
		if err := s.scanSlot(ctx, conn, KindFloat, slot, tenantID, w, result.FloatKeys); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// scanSlot runs the key-enumeration query for one metric-group slot and
// unions the returned keys into the destination set. DISTINCT runs on the
// server; the client only dedupes across slots.
func (s *KeyScanner) scanSlot(ctx context.Context, conn *sql.Conn, kind Kind, slot int, tenantID int64, w Window, into types.KeySet) error {
	column := s.GroupColumn(kind, slot)

	query := fmt.Sprintf(
		"SELECT DISTINCT arrayJoin(mapKeys(%s)) AS key FROM %s WHERE %s >= ? AND %s <= ? AND %s = ?",
		sqlutil.QuoteIdentifier(column),
		sqlutil.QuoteTable(s.layout.Name),
		sqlutil.QuoteIdentifier(s.layout.TimestampColumn),
		sqlutil.QuoteIdentifier(s.layout.TimestampColumn),
		sqlutil.QuoteIdentifier(s.layout.TenantColumn),
	)

	rows, err := conn.QueryContext(ctx, query, w.Start, w.End, tenantID)
	if err != nil {
		return fmt.Errorf("key scan failed for %s in window %s: %w", column, w, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return fmt.Errorf("failed to scan key from %s: %w", column, err)
		}
		into.Add(key)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating keys from %s: %w", column, err)
	}

	return nil
}
