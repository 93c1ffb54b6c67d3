package mapping

import (
	"sort"
	"strconv"
	"time"

	"github.com/keymapio/keymap/internal/types"
)

// documentNote explains the numbering scheme to readers of the artifact.
const documentNote = "Per-customer mappings across the covered days; each customer independently " +
	"maps metrics to column positions starting from int1/float1. The physical table uses the " +
	"max column counts across all customers; unused slots default to zero."

// Document is the persisted mapping artifact: the single source of truth for
// physical schema width and per-row field placement. It is read-only after
// creation; regeneration rebuilds it from the full accumulated key sets.
//
// Field names are the downstream contract (schema DDL generation, row
// transformation, and query generation all read this document and only this
// document) and must not change.
type Document struct {
	Metadata   Metadata             `json:"metadata"`
	MaxColumns MaxColumns           `json:"max_columns"`
	Customers  map[string]*Customer `json:"customers"`
}

// Metadata records the provenance of a mapping document: what data it
// reflects and when it was generated.
type Metadata struct {
	GeneratedAt string   `json:"generated_at"`
	SourceTable string   `json:"source_table"`
	Dates       []string `json:"dates"`
	Note        string   `json:"note"`
}

// MaxColumns is the physical table width: the maximum per-tenant column
// count across all tenants, per kind. Every tenant's rows share this width;
// unused slots hold the zero sentinel.
type MaxColumns struct {
	IntColumns   int `json:"int_columns"`
	FloatColumns int `json:"float_columns"`
}

// Customer holds one tenant's key lists, assignments, and column counts.
type Customer struct {
	IntKeys             []string          `json:"int_keys"`
	FloatKeys           []string          `json:"float_keys"`
	IntMapping          map[string]string `json:"int_mapping"`
	FloatMapping        map[string]string `json:"float_mapping"`
	ReverseIntMapping   map[string]string `json:"reverse_int_mapping"`
	ReverseFloatMapping map[string]string `json:"reverse_float_mapping"`
	IntColumns          int               `json:"int_columns"`
	FloatColumns        int               `json:"float_columns"`
}

// Build assembles the mapping document from accumulated tenant key sets.
// Given the same key sets it produces the same document apart from the
// generation timestamp: tenant blocks derive only from lexicographic sorts.
func Build(sourceTable string, tenants map[int64]*types.TenantKeys, dates []string, generatedAt time.Time) *Document {
	doc := &Document{
		Metadata: Metadata{
			GeneratedAt: generatedAt.Format(time.RFC3339),
			SourceTable: sourceTable,
			Dates:       append([]string(nil), dates...),
			Note:        documentNote,
		},
		Customers: make(map[string]*Customer, len(tenants)),
	}

	for id, tk := range tenants {
		intAssign := Assign(KindInt, tk.IntKeys)
		floatAssign := Assign(KindFloat, tk.FloatKeys)

		intMapping, reverseInt := intAssign.Maps()
		floatMapping, reverseFloat := floatAssign.Maps()

		doc.Customers[strconv.FormatInt(id, 10)] = &Customer{
			IntKeys:             intAssign.Keys(),
			FloatKeys:           floatAssign.Keys(),
			IntMapping:          intMapping,
			FloatMapping:        floatMapping,
			ReverseIntMapping:   reverseInt,
			ReverseFloatMapping: reverseFloat,
			IntColumns:          intAssign.Len(),
			FloatColumns:        floatAssign.Len(),
		}

		if intAssign.Len() > doc.MaxColumns.IntColumns {
			doc.MaxColumns.IntColumns = intAssign.Len()
		}
		if floatAssign.Len() > doc.MaxColumns.FloatColumns {
			doc.MaxColumns.FloatColumns = floatAssign.Len()
		}
	}

	return doc
}

// TenantIDs returns the tenant ids present in the document, sorted
// numerically.
func (d *Document) TenantIDs() []int64 {
	ids := make([]int64, 0, len(d.Customers))
	for raw := range d.Customers {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Customer returns the block for a tenant id.
func (d *Document) Customer(tenantID int64) (*Customer, bool) {
	c, ok := d.Customers[strconv.FormatInt(tenantID, 10)]
	return c, ok
}

// ColumnFor resolves a metric key to its physical column for a tenant,
// checking both kinds. This is the lookup query generation performs when
// translating a human metric name.
func (d *Document) ColumnFor(tenantID int64, key string) (string, bool) {
	c, ok := d.Customer(tenantID)
	if !ok {
		return "", false
	}
	if col, ok := c.IntMapping[key]; ok {
		return col, true
	}
	if col, ok := c.FloatMapping[key]; ok {
		return col, true
	}
	return "", false
}

// TenantKeySets reconstructs per-tenant key sets from the document, used to
// seed a re-discovery run so that an extended day range merges by union
// into prior coverage.
func (d *Document) TenantKeySets() map[int64]*types.TenantKeys {
	out := make(map[int64]*types.TenantKeys, len(d.Customers))
	for raw, c := range d.Customers {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		tk := types.NewTenantKeys(id)
		for _, k := range c.IntKeys {
			tk.IntKeys.Add(k)
		}
		for _, k := range c.FloatKeys {
			tk.FloatKeys.Add(k)
		}
		out[id] = tk
	}
	return out
}
