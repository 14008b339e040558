// Package intern stores equal string contents exactly once and hands out
// comparable handles to the shared storage.
//
// Two handles obtained from the same Pool are equal if and only if their
// contents are equal, so comparing handles is a pointer comparison. All
// functions and methods may be called concurrently.
package intern

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// Policy selects how long pooled entries live.
type Policy int

const (
	// RetainForever keeps every entry for the lifetime of the pool.
	RetainForever Policy = iota
	// RefCounted removes an entry once every handle to it was released.
	RefCounted
)

var policyNames = map[string]Policy{
	"retain":         RetainForever,
	"retain-forever": RetainForever,
	"refcount":       RefCounted,
	"refcounted":     RefCounted,
}

// ParsePolicy converts a policy name into a Policy. An empty name selects
// RetainForever.
func ParsePolicy(value string) (Policy, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return RetainForever, nil
	}
	policy, ok := policyNames[value]
	if !ok {
		return RetainForever, fmt.Errorf("unknown intern policy %q", value)
	}
	return policy, nil
}

func (p Policy) String() string {
	switch p {
	case RetainForever:
		return "retain"
	case RefCounted:
		return "refcount"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

const (
	maxShards     = 4096
	defaultShards = 32
)

// Options configures a Pool.
type Options struct {
	Policy Policy
	// Shards is rounded up to a power of two. Zero means a single shard.
	Shards int
}

// Pool owns the canonical storage for interned contents.
type Pool struct {
	policy Policy
	shards []*shard
	mask   uint64

	hits      atomic.Uint64
	misses    atomic.Uint64
	releases  atomic.Uint64
	evictions atomic.Uint64
	bytes     atomic.Int64
}

// NewPool creates an empty pool.
func NewPool(opts Options) *Pool {
	n := normalizeShards(opts.Shards)
	p := &Pool{
		policy: opts.Policy,
		shards: make([]*shard, n),
		mask:   uint64(n - 1),
	}
	for i := range p.shards {
		p.shards[i] = newShard()
	}
	return p
}

func normalizeShards(n int) int {
	if n <= 1 {
		return 1
	}
	if n > maxShards {
		return maxShards
	}
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

var defaultPool struct {
	once sync.Once
	pool *Pool
}

// Default returns the process-wide pool. It is created on first use and
// retains its entries for the lifetime of the process.
func Default() *Pool {
	defaultPool.once.Do(func() {
		defaultPool.pool = NewPool(Options{Policy: RetainForever, Shards: defaultShards})
	})
	return defaultPool.pool
}

// Policy reports the lifecycle policy of the pool.
func (p *Pool) Policy() Policy {
	return p.policy
}

func (p *Pool) shardFor(hash uint64) *shard {
	return p.shards[hash&p.mask]
}

// Intern returns the handle for content, creating the canonical entry on
// first use. Under RefCounted every call acquires a reference that must be
// given back with Release.
func (p *Pool) Intern(content string) Handle {
	return p.insert(content, xxhash.Sum64String(content), false)
}

// InternBytes is like Intern but takes the content as a byte slice. The
// slice is copied only when a new entry is created.
func (p *Pool) InternBytes(b []byte) Handle {
	hash := xxhash.Sum64(b)
	s := p.shardFor(hash)

	s.mu.RLock()
	e, ok := s.entries[string(b)]
	if ok {
		p.acquire(e)
	}
	s.mu.RUnlock()
	if ok {
		p.hits.Add(1)
		return Handle{e: e}
	}
	// string(b) is already a private copy.
	return p.insert(string(b), hash, true)
}

func (p *Pool) insert(content string, hash uint64, owned bool) Handle {
	s := p.shardFor(hash)

	s.mu.RLock()
	e, ok := s.entries[content]
	if ok {
		p.acquire(e)
	}
	s.mu.RUnlock()
	if ok {
		p.hits.Add(1)
		return Handle{e: e}
	}

	if !owned {
		content = strings.Clone(content)
	}
	fresh := newEntry(p, content, hash)

	s.mu.Lock()
	if e, ok := s.entries[content]; ok {
		// Another goroutine won the race; drop our copy and join it.
		p.acquire(e)
		s.mu.Unlock()
		p.hits.Add(1)
		return Handle{e: e}
	}
	if p.policy == RefCounted {
		fresh.refs.Store(1)
	}
	s.entries[fresh.value] = fresh
	s.mu.Unlock()

	p.misses.Add(1)
	p.bytes.Add(int64(len(fresh.value)))
	return Handle{e: fresh}
}

// acquire must be called with the shard lock of e held (read or write).
func (p *Pool) acquire(e *entry) {
	if p.policy == RefCounted {
		e.refs.Add(1)
	}
}

// Lookup reports the handle for content without inserting it and without
// acquiring a reference.
func (p *Pool) Lookup(content string) (Handle, bool) {
	s := p.shardFor(xxhash.Sum64String(content))
	s.mu.RLock()
	e, ok := s.entries[content]
	s.mu.RUnlock()
	if !ok {
		return Handle{}, false
	}
	return Handle{e: e}, true
}

// Release gives back one reference to h. When the last reference of a
// RefCounted pool is released the entry is removed. Release is a no-op for
// RetainForever pools and for the zero Handle. Releasing a handle more
// often than it was acquired panics.
func (p *Pool) Release(h Handle) {
	e := h.e
	if e == nil || p.policy != RefCounted {
		return
	}
	if e.pool != p {
		panic("intern: release of handle owned by another pool")
	}

	s := p.shardFor(e.hash)
	s.mu.Lock()
	remaining := e.refs.Add(-1)
	if remaining < 0 {
		e.refs.Add(1)
		s.mu.Unlock()
		panic("intern: release of handle with no live references")
	}
	evicted := false
	if remaining == 0 {
		if current, ok := s.entries[e.value]; ok && current == e {
			delete(s.entries, e.value)
			evicted = true
		}
	}
	s.mu.Unlock()

	p.releases.Add(1)
	if evicted {
		p.evictions.Add(1)
		p.bytes.Add(-int64(len(e.value)))
	}
}

// Len returns the number of distinct contents held by the pool.
func (p *Pool) Len() int {
	total := 0
	for _, s := range p.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}

// Shards returns the number of independently locked partitions.
func (p *Pool) Shards() int {
	return len(p.shards)
}
