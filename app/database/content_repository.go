package database

import (
	"context"
	"fmt"

	"github.com/lib/pq"
)

// ContentRepo handles read access to the content catalog
type ContentRepo struct {
	db *DB
}

var _ ContentRepository = (*ContentRepo)(nil)

// NewContentRepository creates a new content repository
func NewContentRepository(db *DB) *ContentRepo {
	return &ContentRepo{db: db}
}

// BatchGet fetches catalog rows for the given ids in a single targeted
// query. The engine never loads the full catalog.
func (r *ContentRepo) BatchGet(ctx context.Context, ids []string) (map[string]ContentItem, error) {
	if len(ids) == 0 {
		return map[string]ContentItem{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, COALESCE(title, ''), COALESCE(poster_ref, ''),
		       COALESCE(playback_ref, ''), COALESCE(media_type, 'video'),
		       COALESCE(duration, 0), COALESCE(tags, '{}'),
		       published_at, created_at
		FROM content_items
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to batch get content items: %w", err)
	}
	defer rows.Close()

	items := make(map[string]ContentItem, len(ids))
	for rows.Next() {
		var item ContentItem
		err := rows.Scan(
			&item.ID, &item.Title, &item.PosterRef, &item.PlaybackRef,
			&item.MediaType, &item.Duration, pq.Array(&item.Tags),
			&item.PublishedAt, &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content item row: %w", err)
		}
		items[item.ID] = item
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content item rows: %w", err)
	}

	return items, nil
}

// GetItemCount returns the total number of catalog rows
func (r *ContentRepo) GetItemCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content_items`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count content items: %w", err)
	}
	return count, nil
}
