// Package mapping converts accumulated tenant key sets into the persisted
// key-to-column mapping document consumed by schema generation, row
// transformation, and query generation.
package mapping

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/keymapio/keymap/internal/types"
)

// Kind distinguishes the integer-valued and float-valued column families of
// the flattened physical schema.
type Kind string

const (
	KindInt   Kind = "int"
	KindFloat Kind = "float"
)

// Assignment is a bijective mapping from a tenant's metric keys to physical
// column identifiers ("int1".."intK" or "float1".."floatK", 1-based,
// contiguous). Iteration order is column order.
//
// Assignment is recomputed from the full key set on every generation, so a
// newly discovered key that sorts before an existing one shifts the columns
// of everything after it. If the physical table already holds rows written
// under the previous numbering, those rows are NOT rewritten; callers must
// treat a mapping regeneration that reassigns columns as a new mapping
// version (see the verify command's --against diff).
type Assignment struct {
	kind    Kind
	columns *orderedmap.OrderedMap[string, string] // key -> column, in column order
	reverse map[string]string                      // column -> key
}

// Assign numbers the keys of one kind: keys are sorted lexicographically and
// column N (1-based) goes to the Nth key. The sort is the only ordering, so
// re-running discovery from scratch over the same data reproduces identical
// column numbers.
func Assign(kind Kind, keys types.KeySet) *Assignment {
	a := &Assignment{
		kind:    kind,
		columns: orderedmap.NewOrderedMap[string, string](),
		reverse: make(map[string]string, keys.Len()),
	}
	for i, key := range keys.Sorted() {
		column := fmt.Sprintf("%s%d", kind, i+1)
		a.columns.Set(key, column)
		a.reverse[column] = key
	}
	return a
}

// Kind returns the column family this assignment covers.
func (a *Assignment) Kind() Kind {
	return a.kind
}

// Len returns the number of assigned columns.
func (a *Assignment) Len() int {
	return a.columns.Len()
}

// Column returns the physical column for a metric key.
func (a *Assignment) Column(key string) (string, bool) {
	return a.columns.Get(key)
}

// Key returns the metric key occupying a physical column.
func (a *Assignment) Key(column string) (string, bool) {
	key, ok := a.reverse[column]
	return key, ok
}

// Keys returns the assigned keys in column order (lexicographic).
func (a *Assignment) Keys() []string {
	keys := make([]string, 0, a.columns.Len())
	for el := a.columns.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Key)
	}
	return keys
}

// Each walks the assignment in column order.
func (a *Assignment) Each(fn func(key, column string)) {
	for el := a.columns.Front(); el != nil; el = el.Next() {
		fn(el.Key, el.Value)
	}
}

// Maps materializes the forward and reverse mappings as plain maps for
// serialization.
func (a *Assignment) Maps() (forward, reverse map[string]string) {
	forward = make(map[string]string, a.columns.Len())
	reverse = make(map[string]string, a.columns.Len())
	for el := a.columns.Front(); el != nil; el = el.Next() {
		forward[el.Key] = el.Value
		reverse[el.Value] = el.Key
	}
	return forward, reverse
}
