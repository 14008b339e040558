package stats

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RowanDark/gstr/intern"
	"github.com/RowanDark/gstr/logging"
)

type Options struct {
	Logger *logging.Logger
	// Interval between periodic log lines. Zero disables periodic logging.
	Interval time.Duration
	// Pool, when set, is sampled into every snapshot.
	Pool *intern.Pool
}

// Tracker accumulates ingest counters and periodically logs them together
// with the statistics of the pool being filled.
type Tracker struct {
	mu      sync.RWMutex
	start   time.Time
	tokens  int
	skipped int
	bytesIn int64

	sourceBreakdown map[string]int

	pool     *intern.Pool
	logger   *logging.Logger
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

type Snapshot struct {
	Tokens   int
	Skipped  int
	BytesIn  int64
	Sources  map[string]int
	Pool     intern.Stats
	Duration time.Duration
}

func NewTracker(opts Options) *Tracker {
	return &Tracker{
		pool:            opts.Pool,
		logger:          opts.Logger,
		interval:        opts.Interval,
		sourceBreakdown: make(map[string]int),
		done:            make(chan struct{}),
	}
}

func (t *Tracker) Start(ctxDone <-chan struct{}) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.start = time.Now()
	t.mu.Unlock()

	if t.logger == nil || t.interval <= 0 {
		return
	}

	t.ticker = time.NewTicker(t.interval)
	go func() {
		for {
			select {
			case <-t.ticker.C:
				t.logSnapshot(false)
			case <-ctxDone:
				return
			case <-t.done:
				return
			}
		}
	}()
}

func (t *Tracker) Stop() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	t.stopOnce.Do(func() {
		close(t.done)
		if t.ticker != nil {
			t.ticker.Stop()
		}
	})
	return t.Snapshot()
}

// Record adds a batch of tokens read from source. Interned tokens count
// towards the source breakdown, skipped ones only towards Skipped.
func (t *Tracker) Record(source string, tokens, skipped int, bytesIn int64) {
	if t == nil {
		return
	}
	source = strings.TrimSpace(source)
	t.mu.Lock()
	t.tokens += tokens
	t.skipped += skipped
	t.bytesIn += bytesIn
	if source != "" && tokens > 0 {
		t.sourceBreakdown[source] += tokens
	}
	t.mu.Unlock()
}

func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	t.mu.RLock()
	copyMap := make(map[string]int, len(t.sourceBreakdown))
	for key, value := range t.sourceBreakdown {
		copyMap[key] = value
	}
	duration := time.Duration(0)
	if !t.start.IsZero() {
		duration = time.Since(t.start)
	}
	snapshot := Snapshot{
		Tokens:   t.tokens,
		Skipped:  t.skipped,
		BytesIn:  t.bytesIn,
		Sources:  copyMap,
		Duration: duration,
	}
	t.mu.RUnlock()

	if t.pool != nil {
		snapshot.Pool = t.pool.Stats()
	}
	return snapshot
}

// DedupRatio is the average number of tokens sharing one pool entry.
func (s Snapshot) DedupRatio() float64 {
	if s.Pool.Entries == 0 {
		return 0
	}
	return float64(s.Tokens) / float64(s.Pool.Entries)
}

// SavedBytes estimates the bytes not allocated thanks to deduplication.
func (s Snapshot) SavedBytes() int64 {
	saved := s.BytesIn - s.Pool.Bytes
	if saved < 0 {
		return 0
	}
	return saved
}

func (t *Tracker) logSnapshot(final bool) {
	if t == nil || t.logger == nil {
		return
	}
	snapshot := t.Snapshot()
	if final {
		t.logger.Infof("Intern statistics: %s", RenderSnapshot(snapshot))
		return
	}
	t.logger.Infof("Stats update: %s", RenderSnapshot(snapshot))
}

// LogFinal writes the closing statistics line.
func (t *Tracker) LogFinal() {
	t.logSnapshot(true)
}

// RenderSnapshot formats s as a single log line.
func RenderSnapshot(s Snapshot) string {
	parts := []string{
		fmt.Sprintf("tokens=%d", s.Tokens),
		fmt.Sprintf("unique=%d", s.Pool.Entries),
		fmt.Sprintf("hit_rate=%.1f%%", s.Pool.HitRate()),
		fmt.Sprintf("dedup=%.2fx", s.DedupRatio()),
		fmt.Sprintf("saved_bytes=%d", s.SavedBytes()),
		fmt.Sprintf("duration=%s", s.Duration.Truncate(time.Second)),
	}
	if s.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("skipped=%d", s.Skipped))
	}
	if s.Pool.Evictions > 0 {
		parts = append(parts, fmt.Sprintf("evictions=%d", s.Pool.Evictions))
	}
	if len(s.Sources) > 0 {
		parts = append(parts, fmt.Sprintf("sources=%s", FormatSourceBreakdown(s.Sources, 5)))
	}
	return strings.Join(parts, " | ")
}

// FormatSourceBreakdown converts a map of source counts into a human readable string.
func FormatSourceBreakdown(sources map[string]int, limit int) string {
	if limit <= 0 {
		limit = len(sources)
	}
	type item struct {
		name  string
		count int
	}
	entries := make([]item, 0, len(sources))
	for name, count := range sources {
		entries = append(entries, item{name: name, count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count == entries[j].count {
			return entries[i].name < entries[j].name
		}
		return entries[i].count > entries[j].count
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	formatted := make([]string, 0, len(entries))
	for _, entry := range entries {
		formatted = append(formatted, fmt.Sprintf("%s=%d", entry.name, entry.count))
	}
	return strings.Join(formatted, ", ")
}
