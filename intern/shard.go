package intern

import (
	"sync"
	"sync/atomic"
	"unicode/utf8"
)

type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func newShard() *shard {
	return &shard{entries: make(map[string]*entry)}
}

// entry is the canonical storage for one content. value, hash and runes
// never change after creation.
type entry struct {
	value string
	hash  uint64
	runes int
	pool  *Pool

	// live handles, only maintained under RefCounted
	refs atomic.Int64
}

func newEntry(p *Pool, value string, hash uint64) *entry {
	return &entry{
		value: value,
		hash:  hash,
		runes: utf8.RuneCountInString(value),
		pool:  p,
	}
}
