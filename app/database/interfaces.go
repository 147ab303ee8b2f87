package database

import (
	"context"
)

type ContentRepository interface {
	// BatchGet resolves ids to catalog rows in one query. Missing ids
	// are simply absent from the result map.
	BatchGet(ctx context.Context, ids []string) (map[string]ContentItem, error)
	GetItemCount(ctx context.Context) (int, error)
}

type UserRepository interface {
	GetGenres(ctx context.Context, userID string) ([]string, error)
	GetFriendIDs(ctx context.Context, userID string) ([]string, error)
	GetSeenIDs(ctx context.Context, userID string, limit int) ([]string, error)
	GetSavedIDs(ctx context.Context, userID string, limit int) ([]string, error)
}
