package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Kwabenabassaw/feed-backend/app/database"
)

// seenHistoryLimit bounds how much seen-history one context load pulls.
const seenHistoryLimit = 500

// savedItemsLimit bounds the saved-items fetch.
const savedItemsLimit = 100

// ContextLoader assembles a UserContext from the per-user source
// tables. The four sources are fetched concurrently, each bounded by
// its own timeout; a slow or failing source degrades to an empty value
// instead of failing the page.
type ContextLoader struct {
	users         database.UserRepository
	cache         ContextCache
	sourceTimeout time.Duration
}

func NewContextLoader(users database.UserRepository, cache ContextCache, sourceTimeout time.Duration) *ContextLoader {
	return &ContextLoader{
		users:         users,
		cache:         cache,
		sourceTimeout: sourceTimeout,
	}
}

// Load returns a usable context for the user. It never fails: sources
// that error or time out contribute their empty value and are listed in
// Degraded.
func (l *ContextLoader) Load(ctx context.Context, userID string) *UserContext {
	if l.cache != nil {
		if cached, ok := l.cache.GetUserContext(ctx, userID); ok {
			slog.Debug("User context cache hit", "user", userID)
			return cached
		}
	}

	userCtx := &UserContext{
		UserID:   userID,
		LoadedAt: time.Now().UTC(),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	fetch := func(source string, fn func(context.Context) ([]string, error), assign func([]string)) {
		defer wg.Done()

		srcCtx, cancel := context.WithTimeout(ctx, l.sourceTimeout)
		defer cancel()

		values, err := fn(srcCtx)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			slog.Warn("User context source degraded", "user", userID, "source", source, "error", err)
			userCtx.Degraded = append(userCtx.Degraded, source)
			return
		}
		assign(values)
	}

	wg.Add(4)
	go fetch("preferences", func(c context.Context) ([]string, error) {
		return l.users.GetGenres(c, userID)
	}, func(v []string) { userCtx.Genres = v })

	go fetch("friends", func(c context.Context) ([]string, error) {
		return l.users.GetFriendIDs(c, userID)
	}, func(v []string) { userCtx.FriendIDs = v })

	go fetch("seen_history", func(c context.Context) ([]string, error) {
		return l.users.GetSeenIDs(c, userID, seenHistoryLimit)
	}, func(v []string) { userCtx.SeenIDs = v })

	go fetch("saved_items", func(c context.Context) ([]string, error) {
		return l.users.GetSavedIDs(c, userID, savedItemsLimit)
	}, func(v []string) { userCtx.SavedIDs = v })

	wg.Wait()

	// Only clean loads are cached; caching a degraded context would pin
	// the degradation for the cache TTL.
	if l.cache != nil && len(userCtx.Degraded) == 0 {
		l.cache.SetUserContext(ctx, userCtx)
	}

	return userCtx
}
