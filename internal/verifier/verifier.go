// Package verifier checks the structural invariants of a mapping document.
package verifier

import (
	"fmt"
	"sort"

	"github.com/keymapio/keymap/internal/mapping"
)

// CheckResult holds the outcome of one invariant check for one tenant.
type CheckResult struct {
	Tenant  string
	Check   string
	OK      bool
	Message string
}

// Result contains all check outcomes for a document.
type Result struct {
	Checks []CheckResult
	Passed int
	Failed int
}

// Ok reports whether every check passed.
func (r *Result) Ok() bool {
	return r.Failed == 0
}

func (r *Result) add(tenant, check string, ok bool, msg string) {
	r.Checks = append(r.Checks, CheckResult{Tenant: tenant, Check: check, OK: ok, Message: msg})
	if ok {
		r.Passed++
	} else {
		r.Failed++
	}
}

// Verify checks every invariant the downstream phases rely on:
//
//   - per tenant and kind, the mapping is a bijection onto the contiguous
//     column range 1..K with K equal to the key count;
//   - the reverse mapping is the exact inverse;
//   - column numbers follow the lexicographic order of the keys;
//   - the global maxima cover every tenant and are attained by at least one.
func Verify(doc *mapping.Document) *Result {
	result := &Result{}

	maxInt, maxFloat := 0, 0
	for _, raw := range sortedTenantKeys(doc) {
		c := doc.Customers[raw]

		verifyKind(result, raw, mapping.KindInt, c.IntKeys, c.IntMapping, c.ReverseIntMapping, c.IntColumns)
		verifyKind(result, raw, mapping.KindFloat, c.FloatKeys, c.FloatMapping, c.ReverseFloatMapping, c.FloatColumns)

		if c.IntColumns > maxInt {
			maxInt = c.IntColumns
		}
		if c.FloatColumns > maxFloat {
			maxFloat = c.FloatColumns
		}
	}

	widthOK := doc.MaxColumns.IntColumns == maxInt && doc.MaxColumns.FloatColumns == maxFloat
	widthMsg := "max_columns equals the per-tenant maxima"
	if !widthOK {
		widthMsg = fmt.Sprintf("max_columns {int:%d float:%d} does not match per-tenant maxima {int:%d float:%d}",
			doc.MaxColumns.IntColumns, doc.MaxColumns.FloatColumns, maxInt, maxFloat)
	}
	result.add("*", "width", widthOK, widthMsg)

	return result
}

func sortedTenantKeys(doc *mapping.Document) []string {
	keys := make([]string, 0, len(doc.Customers))
	for k := range doc.Customers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func verifyKind(result *Result, tenant string, kind mapping.Kind, keys []string, forward, reverse map[string]string, count int) {
	check := func(name string, ok bool, msg string) {
		result.add(tenant, fmt.Sprintf("%s_%s", kind, name), ok, msg)
	}

	// Counts must agree everywhere.
	countsOK := len(keys) == count && len(forward) == count && len(reverse) == count
	check("counts", countsOK, fmt.Sprintf("keys=%d mapping=%d reverse=%d declared=%d",
		len(keys), len(forward), len(reverse), count))
	if !countsOK {
		return
	}

	// Key list must be sorted and duplicate-free.
	sortedOK := sort.StringsAreSorted(keys)
	for i := 1; i < len(keys) && sortedOK; i++ {
		if keys[i] == keys[i-1] {
			sortedOK = false
		}
	}
	check("key_order", sortedOK, "key list is sorted and unique")

	// Bijection onto the contiguous range 1..K in lexicographic order, with
	// the reverse map as exact inverse.
	bijectionOK := true
	reverseOK := true
	msg := "mapping is a contiguous 1-based bijection"
	for i, key := range keys {
		want := fmt.Sprintf("%s%d", kind, i+1)
		got, ok := forward[key]
		if !ok || got != want {
			bijectionOK = false
			msg = fmt.Sprintf("key %q maps to %q, want %q", key, got, want)
			break
		}
		if back, ok := reverse[want]; !ok || back != key {
			reverseOK = false
		}
	}
	check("bijection", bijectionOK, msg)
	check("reverse", reverseOK, "reverse mapping is the exact inverse")
}

// Reassignment records a key whose physical column changed between two
// mapping generations.
type Reassignment struct {
	Tenant    string
	Key       string
	OldColumn string
	NewColumn string
}

// Diff reports keys whose column assignment differs between an old and a new
// document. Assignment is recomputed from the full key set on regeneration,
// so a new key that sorts before existing ones shifts their columns; rows
// already written under the old numbering are not rewritten, which makes
// this diff the operator's visibility into that risk.
func Diff(oldDoc, newDoc *mapping.Document) []Reassignment {
	var moves []Reassignment

	for _, raw := range sortedTenantKeys(oldDoc) {
		oldCust := oldDoc.Customers[raw]
		newCust, ok := newDoc.Customers[raw]
		if !ok {
			continue
		}
		diffKind(&moves, raw, oldCust.IntMapping, newCust.IntMapping)
		diffKind(&moves, raw, oldCust.FloatMapping, newCust.FloatMapping)
	}

	sort.Slice(moves, func(i, j int) bool {
		if moves[i].Tenant != moves[j].Tenant {
			return moves[i].Tenant < moves[j].Tenant
		}
		return moves[i].Key < moves[j].Key
	})
	return moves
}

func diffKind(moves *[]Reassignment, tenant string, oldMap, newMap map[string]string) {
	for key, oldCol := range oldMap {
		newCol, ok := newMap[key]
		if ok && newCol != oldCol {
			*moves = append(*moves, Reassignment{
				Tenant:    tenant,
				Key:       key,
				OldColumn: oldCol,
				NewColumn: newCol,
			})
		}
	}
}
