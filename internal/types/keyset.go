// Package types contains shared types used across multiple packages to avoid import cycles.
package types

import (
	"sort"
	"strings"
	"time"
)

// KeySet is a grow-only set of metric key names. Keys are trimmed on entry
// and empty or whitespace-only names are discarded. Sets only ever grow by
// union during a discovery run; they never shrink.
type KeySet map[string]struct{}

// NewKeySet creates a KeySet from the given keys.
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts a key after trimming surrounding whitespace. Empty and
// whitespace-only keys are discarded. Returns true if the set grew.
func (s KeySet) Add(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	if _, ok := s[key]; ok {
		return false
	}
	s[key] = struct{}{}
	return true
}

// Union merges all keys from other into s. Union is commutative and
// idempotent, so merge order never affects the final set.
func (s KeySet) Union(other KeySet) {
	for k := range other {
		s[k] = struct{}{}
	}
}

// Contains reports whether key is in the set.
func (s KeySet) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

// Len returns the number of keys in the set.
func (s KeySet) Len() int {
	return len(s)
}

// Sorted returns the keys in lexicographic order.
func (s KeySet) Sorted() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy of the set.
func (s KeySet) Clone() KeySet {
	out := make(KeySet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// TenantKeys accumulates the metric keys discovered for one tenant across all
// scanned days, separated by value kind.
type TenantKeys struct {
	TenantID  int64
	IntKeys   KeySet
	FloatKeys KeySet
}

// NewTenantKeys creates an empty accumulator for a tenant.
func NewTenantKeys(tenantID int64) *TenantKeys {
	return &TenantKeys{
		TenantID:  tenantID,
		IntKeys:   make(KeySet),
		FloatKeys: make(KeySet),
	}
}

// ScanStats contains statistics about a discovery run.
type ScanStats struct {
	DaysProcessed    int           // Calendar days iterated
	TenantsSeen      int           // Distinct tenants with at least one scanned day
	WindowsAttempted int           // Window scans submitted
	WindowsSucceeded int           // Window scans that returned a result
	Duration         time.Duration // Wall-clock time for the run
}
