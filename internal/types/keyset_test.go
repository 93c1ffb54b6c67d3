package types

import (
	"reflect"
	"testing"
)

func TestKeySetAdd(t *testing.T) {
	s := make(KeySet)

	if !s.Add("cpu_usage") {
		t.Error("expected first add to grow the set")
	}
	if s.Add("cpu_usage") {
		t.Error("expected duplicate add to report no growth")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 key, got %d", s.Len())
	}
}

func TestKeySetAddTrimsWhitespace(t *testing.T) {
	s := make(KeySet)

	s.Add("  cpu_usage  ")
	if !s.Contains("cpu_usage") {
		t.Error("expected trimmed key to be present")
	}

	if s.Add("") || s.Add("   ") || s.Add("\t\n") {
		t.Error("expected empty and whitespace-only keys to be discarded")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 key, got %d", s.Len())
	}
}

func TestKeySetUnion(t *testing.T) {
	a := NewKeySet("x", "y")
	b := NewKeySet("y", "z")

	a.Union(b)

	if a.Len() != 3 {
		t.Errorf("expected union of 3 keys, got %d", a.Len())
	}
	for _, k := range []string{"x", "y", "z"} {
		if !a.Contains(k) {
			t.Errorf("expected union to contain %q", k)
		}
	}
	// b must be untouched.
	if b.Len() != 2 {
		t.Errorf("expected other set to be unchanged, got %d keys", b.Len())
	}
}

func TestKeySetUnionIdempotent(t *testing.T) {
	a := NewKeySet("x", "y")
	b := NewKeySet("y", "z")

	a.Union(b)
	before := a.Sorted()
	a.Union(b)

	if !reflect.DeepEqual(before, a.Sorted()) {
		t.Errorf("expected repeated union to be a no-op, got %v", a.Sorted())
	}
}

func TestKeySetSorted(t *testing.T) {
	s := NewKeySet("zebra", "alpha", "mango")

	got := s.Sorted()
	want := []string{"alpha", "mango", "zebra"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestKeySetClone(t *testing.T) {
	s := NewKeySet("a", "b")
	c := s.Clone()

	c.Add("c")

	if s.Contains("c") {
		t.Error("expected clone to be independent of the original")
	}
	if c.Len() != 3 {
		t.Errorf("expected clone to have 3 keys, got %d", c.Len())
	}
}

func TestAsTenantID(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{"int64", int64(42), 42, true},
		{"int", int(7), 7, true},
		{"int32", int32(9), 9, true},
		{"uint64", uint64(1042), 1042, true},
		{"uint32", uint32(88), 88, true},
		{"numeric string", "123", 123, true},
		{"numeric bytes", []byte("456"), 456, true},
		{"non-numeric string", "abc", 0, false},
		{"nil", nil, 0, false},
		{"float", 3.14, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AsTenantID(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("AsTenantID(%v) = (%d, %v), want (%d, %v)",
					tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}
