package feed

import (
	"time"
)

// UserContext is a per-request snapshot of everything personalization
// needs. It is never mutated after construction; plan generation owns
// an immutable copy.
type UserContext struct {
	UserID    string    `json:"userId"`
	Genres    []string  `json:"genres"`
	FriendIDs []string  `json:"friendIds"`
	SeenIDs   []string  `json:"seenIds"`
	SavedIDs  []string  `json:"savedIds"`
	LoadedAt  time.Time `json:"loadedAt"`

	// Degraded lists sources that timed out or failed and were
	// defaulted to empty. Advisory only.
	Degraded []string `json:"degraded,omitempty"`
}

// MixSummary records how a plan's slots were filled, for logging and
// the stats endpoint.
type MixSummary struct {
	Trending         int  `json:"trending"`
	Personalized     int  `json:"personalized"`
	Friends          int  `json:"friends"`
	ToppedUp         int  `json:"toppedUp"`
	ColdStartGenres  bool `json:"coldStartGenres"`
	ColdStartFriends bool `json:"coldStartFriends"`
}

// Plan is the immutable, session-scoped ordered id list. Created once
// per session, paginated many times. Exactly one plan exists per live
// session id; creation is conditional-on-absence in the shared store.
type Plan struct {
	SessionID   string     `json:"sessionId"`
	UserID      string     `json:"userId"`
	ItemIDs     []string   `json:"itemIds"`
	Epoch       int64      `json:"epoch"`
	GeneratedAt time.Time  `json:"generatedAt"`
	TTLSeconds  int        `json:"ttlSeconds"`
	Mix         MixSummary `json:"mix"`
}

// Item is the hydrated output shape returned to clients. Produced on
// demand, never persisted by the engine.
type Item struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	PosterRef   string   `json:"posterRef,omitempty"`
	PlaybackRef string   `json:"playbackRef,omitempty"`
	MediaType   string   `json:"mediaType"`
	Duration    int      `json:"duration,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}
