package index

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// ErrBucketUnavailable is returned when a bucket has never been
// populated. An empty published bucket is not unavailable.
var ErrBucketUnavailable = errors.New("bucket unavailable")

// Pool holds ranked candidate snapshots, one per named bucket.
// Publishing replaces a bucket's snapshot wholesale; readers always see
// a fully published version. Reads are lock-guarded slice handoffs, so
// concurrent range queries never observe partial state.
type Pool struct {
	mu      sync.RWMutex
	buckets map[string]*Snapshot
	epoch   int64
}

func NewPool() *Pool {
	return &Pool{
		buckets: make(map[string]*Snapshot),
	}
}

// Publish installs a new snapshot for the bucket, replacing any
// previous one. Entries are sorted once here: score descending, ties by
// most recent UpdatedAt, then by id for total determinism.
func (p *Pool) Publish(bucket string, entries []Entry) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		if !sorted[i].UpdatedAt.Equal(sorted[j].UpdatedAt) {
			return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	p.mu.Lock()
	defer p.mu.Unlock()

	p.epoch++
	p.buckets[bucket] = &Snapshot{
		Bucket:      bucket,
		Version:     p.epoch,
		Entries:     sorted,
		PublishedAt: time.Now().UTC(),
	}

	slog.Debug("Index snapshot published", "bucket", bucket, "version", p.epoch, "entries", len(sorted))
}

// RangeTop returns the top n entries of the bucket's current snapshot.
// Returns ErrBucketUnavailable if the bucket was never populated.
func (p *Pool) RangeTop(bucket string, n int) ([]Entry, error) {
	p.mu.RLock()
	snap, ok := p.buckets[bucket]
	p.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBucketUnavailable, bucket)
	}

	if n > len(snap.Entries) {
		n = len(snap.Entries)
	}
	if n < 0 {
		n = 0
	}

	out := make([]Entry, n)
	copy(out, snap.Entries[:n])
	return out, nil
}

// Exists reports whether the bucket has ever been populated. Used to
// distinguish "empty" from "cold/missing".
func (p *Pool) Exists(bucket string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.buckets[bucket]
	return ok
}

// Epoch returns the monotonic snapshot generation counter. It bumps on
// every publish and seeds plan shuffling so ordering stays reproducible
// per (session, epoch).
func (p *Pool) Epoch() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.epoch
}

// Stats returns per-bucket entry counts for the stats endpoint.
func (p *Pool) Stats() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := make(map[string]int, len(p.buckets))
	for name, snap := range p.buckets {
		stats[name] = len(snap.Entries)
	}
	return stats
}
