package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Kwabenabassaw/feed-backend/app/database"
)

// hydratorCacheMax caps the per-id cache; a sweep runs when it fills.
const hydratorCacheMax = 10000

type cachedItem struct {
	item      Item
	expiresAt time.Time
}

// Hydrator resolves ordered id lists to display metadata with one
// batched catalog lookup per page. It neither knows nor cares how the
// id list was produced.
type Hydrator struct {
	content database.ContentRepository
	ttl     time.Duration

	mu     sync.RWMutex
	cache  map[string]cachedItem
	hits   int64
	misses int64
}

func NewHydrator(content database.ContentRepository, ttl time.Duration) *Hydrator {
	return &Hydrator{
		content: content,
		ttl:     ttl,
		cache:   make(map[string]cachedItem),
	}
}

// Hydrate resolves ids to items, preserving input order. Ids missing
// from the catalog are logged and omitted, never fatal.
func (h *Hydrator) Hydrate(ctx context.Context, ids []string) ([]Item, error) {
	if len(ids) == 0 {
		return []Item{}, nil
	}

	found := make(map[string]Item, len(ids))
	var missing []string

	now := time.Now()
	h.mu.RLock()
	for _, id := range ids {
		if entry, ok := h.cache[id]; ok && now.Before(entry.expiresAt) {
			found[id] = entry.item
		} else {
			missing = append(missing, id)
		}
	}
	h.mu.RUnlock()

	h.mu.Lock()
	h.hits += int64(len(found))
	h.misses += int64(len(missing))
	h.mu.Unlock()

	if len(missing) > 0 {
		rows, err := h.content.BatchGet(ctx, missing)
		if err != nil {
			return nil, err
		}

		h.mu.Lock()
		if len(h.cache) > hydratorCacheMax {
			h.sweepLocked(now)
		}
		for id, row := range rows {
			item := Item{
				ID:          row.ID,
				Title:       row.Title,
				PosterRef:   row.PosterRef,
				PlaybackRef: row.PlaybackRef,
				MediaType:   row.MediaType,
				Duration:    row.Duration,
				Tags:        row.Tags,
			}
			found[id] = item
			h.cache[id] = cachedItem{item: item, expiresAt: now.Add(h.ttl)}
		}
		h.mu.Unlock()
	}

	items := make([]Item, 0, len(ids))
	var unresolved []string
	for _, id := range ids {
		if item, ok := found[id]; ok {
			items = append(items, item)
		} else {
			unresolved = append(unresolved, id)
		}
	}

	if len(unresolved) > 0 {
		sample := unresolved
		if len(sample) > 5 {
			sample = sample[:5]
		}
		slog.Warn("Hydration left ids unresolved", "count", len(unresolved), "sample", sample)
	}

	return items, nil
}

// Stats returns cache hit/miss counters and current size.
func (h *Hydrator) Stats() (hits, misses int64, size int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.hits, h.misses, len(h.cache)
}

func (h *Hydrator) sweepLocked(now time.Time) {
	for id, entry := range h.cache {
		if now.After(entry.expiresAt) {
			delete(h.cache, id)
		}
	}
}
