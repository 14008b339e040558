package intern

// Stats is a point-in-time view of pool activity.
type Stats struct {
	Policy  Policy
	Shards  int
	Entries int
	// Bytes is the total content size retained by the pool.
	Bytes     int64
	Hits      uint64
	Misses    uint64
	Releases  uint64
	Evictions uint64
}

// Stats returns the current counters of the pool. Counters are read
// independently, so a snapshot taken under concurrent use may be slightly
// skewed between fields.
func (p *Pool) Stats() Stats {
	return Stats{
		Policy:    p.policy,
		Shards:    len(p.shards),
		Entries:   p.Len(),
		Bytes:     p.bytes.Load(),
		Hits:      p.hits.Load(),
		Misses:    p.misses.Load(),
		Releases:  p.releases.Load(),
		Evictions: p.evictions.Load(),
	}
}

// Requests returns the number of intern calls served.
func (s Stats) Requests() uint64 {
	return s.Hits + s.Misses
}

// HitRate returns the percentage of intern calls answered by an existing
// entry.
func (s Stats) HitRate() float64 {
	total := s.Requests()
	if total == 0 {
		return 0
	}
	return (float64(s.Hits) / float64(total)) * 100
}
