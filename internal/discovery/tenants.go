package discovery

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/keymapio/keymap/internal/config"
	"github.com/keymapio/keymap/internal/logger"
	"github.com/keymapio/keymap/internal/sqlutil"
	"github.com/keymapio/keymap/internal/types"
)

// TenantSource lists the tenants active on a calendar day.
type TenantSource interface {
	ActiveTenants(ctx context.Context, day time.Time) ([]int64, error)
}

// TenantLister is the ClickHouse-backed TenantSource. It runs one coarse
// distinct-tenant scan over the day's full span, not chunked: the query is
// cheap relative to key enumeration and runs once per day.
type TenantLister struct {
	db     *sql.DB
	layout config.TableConfig
	logger *logger.Logger
}

// NewTenantLister creates a lister over the given source table layout.
func NewTenantLister(db *sql.DB, layout config.TableConfig, log *logger.Logger) (*TenantLister, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &TenantLister{
		db:     db,
		layout: layout,
		logger: log,
	}, nil
}

// ActiveTenants returns the sorted tenant ids with at least one row on the
// given day. Values that do not parse as integer ids are logged and skipped.
func (l *TenantLister) ActiveTenants(ctx context.Context, day time.Time) ([]int64, error) {
	dayStart, nextDay := DayBounds(day)

	query := fmt.Sprintf(
		"SELECT DISTINCT %s FROM %s WHERE %s >= ? AND %s < ?",
		sqlutil.QuoteIdentifier(l.layout.TenantColumn),
		sqlutil.QuoteTable(l.layout.Name),
		sqlutil.QuoteIdentifier(l.layout.TimestampColumn),
		sqlutil.QuoteIdentifier(l.layout.TimestampColumn),
	)

	rows, err := l.db.QueryContext(ctx, query, dayStart, nextDay)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tenants for %s: %w", FormatDay(day), err)
	}
	defer rows.Close()

	var tenants []int64
	for rows.Next() {
		var raw interface{}
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan tenant id: %w", err)
		}
		id, ok := types.AsTenantID(raw)
		if !ok {
			l.logger.Warnw("Skipping non-integer tenant id", "value", raw, "day", FormatDay(day))
			continue
		}
		tenants = append(tenants, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tenant ids: %w", err)
	}

	sort.Slice(tenants, func(i, j int) bool { return tenants[i] < tenants[j] })

	l.logger.Infow("Listed active tenants",
		"day", FormatDay(day),
		"count", len(tenants),
	)

	return tenants, nil
}
