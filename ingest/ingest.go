// Package ingest tokenizes input sources concurrently and interns every
// admitted token into a pool.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/RowanDark/gstr/filters"
	"github.com/RowanDark/gstr/intern"
	"github.com/RowanDark/gstr/internal/bufpool"
	"github.com/RowanDark/gstr/logging"
	"github.com/RowanDark/gstr/stats"
)

// flushEvery is the number of tokens a worker processes between tracker
// updates and cancellation checks.
const flushEvery = 1024

// Source is a named input.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource reads the file at path.
func FileSource(path string) Source {
	return Source{
		Name: path,
		Open: func() (io.ReadCloser, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("opening input: %w", err)
			}
			return f, nil
		},
	}
}

// ReaderSource reads from r. The reader is not closed.
func ReaderSource(name string, r io.Reader) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		},
	}
}

type Options struct {
	Pool    *intern.Pool
	Split   string
	Matcher *filters.Matcher
	Tracker *stats.Tracker
	Logger  *logging.Logger
	Threads int
}

// Result holds one handle per distinct interned token with its number of
// occurrences. Under a RefCounted pool every key owns exactly one
// reference; call Release once the handles are no longer needed.
type Result struct {
	Counts  map[intern.Handle]int
	Tokens  int
	Skipped int
	BytesIn int64
	Sources int
}

// Frequency is a distinct value and the number of times it was seen.
type Frequency struct {
	Value intern.Handle
	Count int
}

// Top returns the n most frequent values, ties broken by content.
func (r *Result) Top(n int) []Frequency {
	if n <= 0 || len(r.Counts) == 0 {
		return nil
	}
	all := make([]Frequency, 0, len(r.Counts))
	for h, count := range r.Counts {
		all = append(all, Frequency{Value: h, Count: count})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count == all[j].Count {
			return all[i].Value.Compare(all[j].Value) < 0
		}
		return all[i].Count > all[j].Count
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// Unique returns the number of distinct tokens.
func (r *Result) Unique() int {
	return len(r.Counts)
}

// Release gives back the reference held for every distinct token.
func (r *Result) Release() {
	for h := range r.Counts {
		h.Release()
	}
	r.Counts = nil
}

// Run interns every admitted token of sources into opts.Pool, processing up
// to opts.Threads sources at a time.
func Run(ctx context.Context, sources []Source, opts Options) (*Result, error) {
	if opts.Pool == nil {
		return nil, fmt.Errorf("ingest: pool is required")
	}
	tok, err := newTokenizer(strings.ToLower(strings.TrimSpace(opts.Split)))
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	result := &Result{Counts: make(map[intern.Handle]int)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if opts.Threads > 0 {
		g.SetLimit(opts.Threads)
	}
	for _, src := range sources {
		g.Go(func() error {
			w := worker{
				pool:    opts.Pool,
				tok:     tok,
				matcher: opts.Matcher,
				tracker: opts.Tracker,
				source:  src.Name,
				counts:  make(map[intern.Handle]int),
			}
			logger.Debugf("Reading %s", src.Name)
			if err := w.consume(gctx, src); err != nil {
				w.release()
				return fmt.Errorf("%s: %w", src.Name, err)
			}
			logger.Debugf("Finished %s: tokens=%d distinct=%d skipped=%d", src.Name, w.tokens, len(w.counts), w.skipped)

			mu.Lock()
			result.merge(&w)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		result.Release()
		return nil, err
	}
	return result, nil
}

func (r *Result) merge(w *worker) {
	for h, count := range w.counts {
		if _, ok := r.Counts[h]; ok {
			// r already owns a reference for this entry.
			h.Release()
		}
		r.Counts[h] += count
	}
	r.Tokens += w.tokens
	r.Skipped += w.skipped
	r.BytesIn += w.bytesIn
	r.Sources++
}

type worker struct {
	pool    *intern.Pool
	tok     tokenizer
	matcher *filters.Matcher
	tracker *stats.Tracker
	source  string

	counts  map[intern.Handle]int
	tokens  int
	skipped int
	bytesIn int64

	pendingTokens  int
	pendingSkipped int
	pendingBytes   int64
}

func (w *worker) consume(ctx context.Context, src Source) error {
	rc, err := src.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	buf := bufpool.Acquire()
	defer bufpool.Release(buf)

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(*buf, bufpool.MaxToken)
	scanner.Split(skipOversized(w.tok.split, w.tok.separator, bufpool.MaxToken, func() { w.pendingSkipped++ }))

	for scanner.Scan() {
		w.add(scanner.Bytes())
		if w.pendingTokens+w.pendingSkipped >= flushEvery {
			w.flush()
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	w.flush()
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return ctx.Err()
}

func (w *worker) add(raw []byte) {
	if len(raw) == 0 {
		w.pendingSkipped++
		return
	}

	var h intern.Handle
	switch {
	case w.tok.transform != nil:
		content, ok := w.tok.transform(raw)
		if !ok || !w.matcher.Allow(content) {
			w.pendingSkipped++
			return
		}
		h = w.pool.Intern(content)
	case w.matcher != nil:
		content := string(raw)
		if !w.matcher.Allow(content) {
			w.pendingSkipped++
			return
		}
		h = w.pool.Intern(content)
	default:
		h = w.pool.InternBytes(raw)
	}

	if _, seen := w.counts[h]; seen {
		// Keep a single reference per distinct entry.
		h.Release()
	}
	w.counts[h]++
	w.pendingTokens++
	w.pendingBytes += int64(len(raw))
}

func (w *worker) flush() {
	w.tokens += w.pendingTokens
	w.skipped += w.pendingSkipped
	w.bytesIn += w.pendingBytes
	w.tracker.Record(w.source, w.pendingTokens, w.pendingSkipped, w.pendingBytes)
	w.pendingTokens, w.pendingSkipped, w.pendingBytes = 0, 0, 0
}

func (w *worker) release() {
	for h := range w.counts {
		h.Release()
	}
	w.counts = nil
}
