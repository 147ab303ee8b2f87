package database

import (
	"context"
	"fmt"
)

// UserRepo reads the per-user source tables replicated from the
// realtime social-graph store. Each getter is a narrow single-query
// read so the context loader can bound it with its own timeout.
type UserRepo struct {
	db *DB
}

var _ UserRepository = (*UserRepo)(nil)

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) GetGenres(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT genre FROM user_genre_preferences
		WHERE user_id = $1
		ORDER BY weight DESC, genre ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get genres: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

func (r *UserRepo) GetFriendIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT friend_id FROM user_friends
		WHERE user_id = $1
		ORDER BY added_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get friend ids: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

func (r *UserRepo) GetSeenIDs(ctx context.Context, userID string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT item_id FROM user_seen_items
		WHERE user_id = $1
		ORDER BY seen_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get seen ids: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

func (r *UserRepo) GetSavedIDs(ctx context.Context, userID string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT item_id FROM user_saved_items
		WHERE user_id = $1
		ORDER BY saved_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get saved ids: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

type stringRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanStrings(rows stringRows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}
