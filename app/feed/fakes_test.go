package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Kwabenabassaw/feed-backend/app/database"
	"github.com/Kwabenabassaw/feed-backend/app/index"
)

var errStoreDown = errors.New("store down")

// fakeDedup is an in-memory stand-in for the shared dedup store.
type fakeDedup struct {
	mu       sync.Mutex
	sessions map[string]map[string]struct{}
	account  map[string]map[string]struct{}
	down     bool
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{
		sessions: make(map[string]map[string]struct{}),
		account:  make(map[string]map[string]struct{}),
	}
}

func (f *fakeDedup) SessionSeen(_ context.Context, sessionID string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errStoreDown
	}
	out := make(map[string]struct{})
	for id := range f.sessions[sessionID] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (f *fakeDedup) SessionMark(_ context.Context, sessionID string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errStoreDown
	}
	set := f.sessions[sessionID]
	if set == nil {
		set = make(map[string]struct{})
		f.sessions[sessionID] = set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return nil
}

func (f *fakeDedup) AccountProbablySeen(_ context.Context, userID string, ids []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errStoreDown
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		_, ok := f.account[userID][id]
		out[id] = ok
	}
	return out, nil
}

func (f *fakeDedup) AccountMark(_ context.Context, userID string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errStoreDown
	}
	set := f.account[userID]
	if set == nil {
		set = make(map[string]struct{})
		f.account[userID] = set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return nil
}

// fakePlans implements conditional-on-absence plan persistence.
type fakePlans struct {
	mu      sync.Mutex
	plans   map[string]*Plan
	creates int
	down    bool
}

func newFakePlans() *fakePlans {
	return &fakePlans{plans: make(map[string]*Plan)}
}

func (f *fakePlans) Create(_ context.Context, plan *Plan) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return false, errStoreDown
	}
	if _, ok := f.plans[plan.SessionID]; ok {
		return false, nil
	}
	copied := *plan
	f.plans[plan.SessionID] = &copied
	f.creates++
	return true, nil
}

func (f *fakePlans) Get(_ context.Context, sessionID string) (*Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errStoreDown
	}
	plan, ok := f.plans[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *plan
	return &copied, nil
}

// fakeUsers serves canned user source data with optional per-source
// failures and delays.
type fakeUsers struct {
	genres    []string
	friends   []string
	seen      []string
	saved     []string
	failing   map[string]bool
	delay     time.Duration
	delaySrcs map[string]bool
}

var _ database.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) get(ctx context.Context, source string, values []string) ([]string, error) {
	if f.failing[source] {
		return nil, errStoreDown
	}
	if f.delaySrcs[source] && f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return values, nil
}

func (f *fakeUsers) GetGenres(ctx context.Context, _ string) ([]string, error) {
	return f.get(ctx, "preferences", f.genres)
}

func (f *fakeUsers) GetFriendIDs(ctx context.Context, _ string) ([]string, error) {
	return f.get(ctx, "friends", f.friends)
}

func (f *fakeUsers) GetSeenIDs(ctx context.Context, _ string, _ int) ([]string, error) {
	return f.get(ctx, "seen_history", f.seen)
}

func (f *fakeUsers) GetSavedIDs(ctx context.Context, _ string, _ int) ([]string, error) {
	return f.get(ctx, "saved_items", f.saved)
}

// fakeContent is a map-backed catalog that counts batch lookups.
type fakeContent struct {
	mu      sync.Mutex
	items   map[string]database.ContentItem
	batches int
	lastLen int
}

var _ database.ContentRepository = (*fakeContent)(nil)

func newFakeContent(ids ...string) *fakeContent {
	items := make(map[string]database.ContentItem, len(ids))
	for _, id := range ids {
		items[id] = database.ContentItem{ID: id, Title: "Title " + id, MediaType: "video"}
	}
	return &fakeContent{items: items}
}

func (f *fakeContent) BatchGet(_ context.Context, ids []string) (map[string]database.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	f.lastLen = len(ids)
	out := make(map[string]database.ContentItem)
	for _, id := range ids {
		if item, ok := f.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (f *fakeContent) GetItemCount(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items), nil
}

// entries builds a descending-score bucket: first id gets the highest
// score.
func entries(ids ...string) []index.Entry {
	out := make([]index.Entry, len(ids))
	for i, id := range ids {
		out[i] = index.Entry{ID: id, Score: float64(len(ids) - i), UpdatedAt: time.Unix(1700000000, 0)}
	}
	return out
}
