package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/Kwabenabassaw/feed-backend/app/feed"
)

// ContextCache is a short-lived read-through cache for user contexts.
// Strictly best effort: any store error is treated as a miss so a slow
// cache can never slow down or fail a request.
type ContextCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ feed.ContextCache = (*ContextCache)(nil)

func NewContextCache(client *redis.Client, ttl time.Duration) *ContextCache {
	return &ContextCache{client: client, ttl: ttl}
}

func contextKey(userID string) string {
	return "user_context:" + userID
}

func (c *ContextCache) GetUserContext(ctx context.Context, userID string) (*feed.UserContext, bool) {
	payload, err := c.client.Get(ctx, contextKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("User context cache read failed", "user", userID, "error", err)
		return nil, false
	}

	var userCtx feed.UserContext
	if err := json.Unmarshal(payload, &userCtx); err != nil {
		// Stale or corrupt entry, drop it
		c.client.Del(ctx, contextKey(userID))
		return nil, false
	}
	return &userCtx, true
}

func (c *ContextCache) SetUserContext(ctx context.Context, userCtx *feed.UserContext) {
	payload, err := json.Marshal(userCtx)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, contextKey(userCtx.UserID), payload, c.ttl).Err(); err != nil {
		slog.Warn("User context cache write failed", "user", userCtx.UserID, "error", err)
	}
}
