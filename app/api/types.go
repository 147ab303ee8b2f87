package api

import (
	"context"

	"github.com/Kwabenabassaw/feed-backend/app/analytics"
	"github.com/Kwabenabassaw/feed-backend/app/database"
	"github.com/Kwabenabassaw/feed-backend/app/feed"
	"github.com/Kwabenabassaw/feed-backend/app/index"
)

type FeedServiceInterface interface {
	GetFeed(ctx context.Context, userID, cursor string, limit int) (*feed.Page, error)
}

var _ FeedServiceInterface = (*feed.Service)(nil)

type Handler struct {
	service     FeedServiceInterface
	pool        *index.Pool
	hydrator    *feed.Hydrator
	emitter     *analytics.Emitter
	contentRepo database.ContentRepository
	version     string
}

// FeedResponse is the page payload returned by GET /feed.
type FeedResponse struct {
	Items      []feed.Item `json:"items"`
	SessionID  string      `json:"session_id"`
	NextCursor string      `json:"next_cursor,omitempty"`
	HasMore    bool        `json:"has_more"`
	Degraded   []string    `json:"degraded,omitempty"`
	LatencyMs  int64       `json:"latency_ms"`
}

// EventRequest is the body accepted by POST /events.
type EventRequest struct {
	Type      string `json:"type" binding:"required"`
	SessionID string `json:"session_id" binding:"required"`
	ItemID    string `json:"item_id"`
	Position  int    `json:"position"`
}
