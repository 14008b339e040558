package intern

import (
	"encoding/json"
	"fmt"
	"sort"
	"testing"
)

func TestHandleAccessors(t *testing.T) {
	pool := NewPool(Options{})
	h := pool.Intern("añejo")

	if h.String() != "añejo" || fmt.Sprint(h) != "añejo" {
		t.Fatalf("unexpected rendering %q", fmt.Sprint(h))
	}
	if h.Len() != 6 {
		t.Fatalf("expected 6 bytes, got %d", h.Len())
	}
	if h.RuneCount() != 5 {
		t.Fatalf("expected 5 runes, got %d", h.RuneCount())
	}
	if h.Pool() != pool {
		t.Fatalf("handle reports wrong pool")
	}
	if h.Hash() == 0 {
		t.Fatalf("expected non-zero hash")
	}
}

func TestZeroHandle(t *testing.T) {
	var zero Handle
	if !zero.IsZero() || zero.Value() != "" || zero.Hash() != 0 || zero.RuneCount() != 0 {
		t.Fatalf("unexpected zero handle state")
	}
	if zero.Pool() != nil {
		t.Fatalf("zero handle must not report a pool")
	}
	pool := NewPool(Options{})
	if zero.Equal(pool.Intern("")) {
		t.Fatalf("zero handle must not equal an interned handle")
	}
	if !zero.Clone().IsZero() {
		t.Fatalf("clone of zero handle must stay zero")
	}
}

func TestHandleAsMapKey(t *testing.T) {
	pool := NewPool(Options{})
	counts := make(map[Handle]int)
	for _, word := range []string{"to", "be", "or", "not", "to", "be"} {
		counts[pool.Intern(word)]++
	}
	if len(counts) != 4 {
		t.Fatalf("expected 4 distinct keys, got %d", len(counts))
	}
	if counts[pool.Intern("to")] != 2 || counts[pool.Intern("not")] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestHandleCompare(t *testing.T) {
	pool := NewPool(Options{})
	handles := []Handle{pool.Intern("pear"), pool.Intern("apple"), pool.Intern("fig"), pool.Intern("apple")}
	sort.Slice(handles, func(i, j int) bool { return handles[i].Compare(handles[j]) < 0 })

	got := make([]string, len(handles))
	for i, h := range handles {
		got[i] = h.Value()
	}
	want := []string{"apple", "apple", "fig", "pear"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: %v", got)
		}
	}
	if handles[0].Compare(handles[1]) != 0 {
		t.Fatalf("equal handles must compare as 0")
	}
}

func TestHandleMarshalText(t *testing.T) {
	pool := NewPool(Options{})
	payload := struct {
		Name Handle `json:"name"`
	}{Name: pool.Intern("resolver")}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"name":"resolver"}` {
		t.Fatalf("unexpected encoding %s", data)
	}
}

func TestCloneOfLookedUpHandle(t *testing.T) {
	pool := NewPool(Options{Policy: RefCounted})
	owner := pool.Intern("shared")

	found, ok := pool.Lookup("shared")
	if !ok {
		t.Fatalf("expected lookup hit")
	}
	clone := found.Clone()
	clone.Release()
	if pool.Len() != 1 {
		t.Fatalf("releasing the clone must leave the owner's reference, got %d entries", pool.Len())
	}

	owner.Release()
	if _, ok := pool.Lookup("shared"); ok {
		t.Fatalf("expected eviction once the owner released")
	}
}
