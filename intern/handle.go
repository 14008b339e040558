package intern

import "strings"

// Handle references one canonical entry of a Pool. Handles are small,
// copyable and comparable with ==, which compares entry identity. The zero
// Handle references nothing and renders as the empty string.
type Handle struct {
	e *entry
}

// Value returns the interned content. It never allocates.
func (h Handle) Value() string {
	if h.e == nil {
		return ""
	}
	return h.e.value
}

func (h Handle) String() string {
	return h.Value()
}

// Equal reports whether h and other reference the same entry. For handles
// from the same pool this is equivalent to comparing their contents.
func (h Handle) Equal(other Handle) bool {
	return h.e == other.e
}

// Compare orders handles by content, like strings.Compare.
func (h Handle) Compare(other Handle) int {
	if h.e == other.e {
		return 0
	}
	return strings.Compare(h.Value(), other.Value())
}

// Hash returns the precomputed 64-bit hash of the content. Equal handles
// always have equal hashes. The zero Handle hashes to 0.
func (h Handle) Hash() uint64 {
	if h.e == nil {
		return 0
	}
	return h.e.hash
}

// Len returns the content length in bytes.
func (h Handle) Len() int {
	return len(h.Value())
}

// RuneCount returns the number of UTF-8 encoded runes in the content.
// Invalid bytes count as one rune each.
func (h Handle) RuneCount() int {
	if h.e == nil {
		return 0
	}
	return h.e.runes
}

// IsZero reports whether h references no entry.
func (h Handle) IsZero() bool {
	return h.e == nil
}

// Pool returns the pool owning the entry, or nil for the zero Handle.
func (h Handle) Pool() *Pool {
	if h.e == nil {
		return nil
	}
	return h.e.pool
}

// Clone returns a handle to the same entry. Under RefCounted it acquires an
// additional reference, so the clone must be released separately.
//
// Cloning a handle obtained from Lookup acquires a reference the caller did
// not have before. Release the clone, never the looked-up handle, and only
// clone while some other live reference keeps the entry in the pool.
func (h Handle) Clone() Handle {
	if h.e == nil {
		return h
	}
	if h.e.pool.policy == RefCounted {
		// The caller owns a live reference, so the entry cannot be evicted
		// concurrently.
		h.e.refs.Add(1)
	}
	return h
}

// Release gives back the reference held by h. See Pool.Release.
func (h Handle) Release() {
	if h.e == nil {
		return
	}
	h.e.pool.Release(h)
}

// MarshalText renders the content, so handles encode as plain strings.
func (h Handle) MarshalText() ([]byte, error) {
	return []byte(h.Value()), nil
}
