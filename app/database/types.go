package database

import (
	"time"
)

// ContentItem is a row in the content catalog. The catalog is written
// by the external ingestion pipeline; the engine only reads it during
// hydration.
type ContentItem struct {
	ID          string
	Title       string
	PosterRef   string
	PlaybackRef string
	MediaType   string
	Duration    int
	Tags        []string
	PublishedAt *time.Time
	CreatedAt   time.Time
}
