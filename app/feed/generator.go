package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/Kwabenabassaw/feed-backend/app/cfg"
	"github.com/Kwabenabassaw/feed-backend/app/index"
)

// Generator produces feed plans by mixing ranked candidate buckets
// under the configured share split, excluding seen content, and
// ordering the result with a deterministic tiered shuffle.
type Generator struct {
	idx    CandidateIndex
	dedup  DedupStore
	plans  PlanStore
	params *cfg.Params
}

func NewGenerator(idx CandidateIndex, dedup DedupStore, plans PlanStore, params *cfg.Params) *Generator {
	return &Generator{
		idx:    idx,
		dedup:  dedup,
		plans:  plans,
		params: params,
	}
}

// GetOrCreatePlan returns the session's live plan, generating and
// persisting one if none exists. Creation is conditional-on-absence:
// under concurrent first requests exactly one plan wins and every
// caller converges on it.
func (g *Generator) GetOrCreatePlan(ctx context.Context, userCtx *UserContext, sessionID string, targetSize int) (*Plan, error) {
	existing, err := g.plans.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		slog.Debug("Feed plan reused", "session", sessionID, "items", len(existing.ItemIDs))
		return existing, nil
	}

	sessionSeen, err := g.dedup.SessionSeen(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("plan creation aborted: %w", err)
	}

	plan, err := g.buildPlan(ctx, userCtx, sessionID, targetSize, sessionSeen)
	if err != nil {
		return nil, err
	}

	created, err := g.plans.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	if !created {
		// Another worker won the race; converge on its plan.
		winner, err := g.plans.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if winner != nil {
			slog.Debug("Feed plan race lost, using winner", "session", sessionID)
			return winner, nil
		}
		// Winner expired between SetNX and Get; our plan is as good.
	}

	// Mark the whole plan at creation time so pagination never needs
	// per-page exclusion state.
	if err := g.dedup.SessionMark(ctx, sessionID, plan.ItemIDs); err != nil {
		return nil, fmt.Errorf("plan creation aborted: %w", err)
	}

	// The account filter is a soft ranking signal; failing to update it
	// is not fatal.
	if err := g.dedup.AccountMark(ctx, userCtx.UserID, plan.ItemIDs); err != nil {
		slog.Warn("Account bloom update failed", "user", userCtx.UserID, "error", err)
	}

	slog.Info("Feed plan created", "session", sessionID, "user", userCtx.UserID,
		"items", len(plan.ItemIDs), "epoch", plan.Epoch,
		"trending", plan.Mix.Trending, "personalized", plan.Mix.Personalized,
		"friends", plan.Mix.Friends, "topped_up", plan.Mix.ToppedUp)

	return plan, nil
}

func (g *Generator) buildPlan(ctx context.Context, userCtx *UserContext, sessionID string, targetSize int, sessionSeen map[string]struct{}) (*Plan, error) {
	p := g.params

	tCount := int(math.Ceil(p.TrendingShare * float64(targetSize)))
	pCount := int(math.Ceil(p.PersonalizedShare * float64(targetSize)))
	fCount := targetSize - tCount - pCount
	if fCount < 0 {
		fCount = 0
	}

	over := p.Oversample
	if over < 1 {
		over = 1
	}

	trending := g.rangeTopLogged(index.BucketTrending, tCount*over, "trending")

	genres := userCtx.Genres
	coldGenres := len(genres) == 0
	if coldGenres {
		genres = p.DefaultGenres
	}
	personalized := g.collectGenres(genres, pCount*over)

	coldFriends := len(userCtx.FriendIDs) == 0
	var friends []index.Entry
	if coldFriends {
		friends = g.rangeTopLogged(index.BucketCommunity, fCount*over, "friends")
	} else {
		var err error
		friends, err = g.idx.RangeTop(index.FriendActivityBucket(userCtx.UserID), fCount*over)
		if errors.Is(err, index.ErrBucketUnavailable) {
			slog.Warn("Friend activity bucket missing, using community", "user", userCtx.UserID)
			friends = g.rangeTopLogged(index.BucketCommunity, fCount*over, "friends")
		} else if err != nil {
			return nil, err
		}
	}

	exclude := make(map[string]struct{}, len(sessionSeen)+len(userCtx.SeenIDs))
	for id := range sessionSeen {
		exclude[id] = struct{}{}
	}
	for _, id := range userCtx.SeenIDs {
		exclude[id] = struct{}{}
	}

	trending = filterEntries(trending, exclude)
	personalized = filterEntries(personalized, exclude)
	friends = filterEntries(friends, exclude)

	// Soft long-term signal: demote (never drop) ids the account filter
	// flags, so a false positive cannot make content unreachable.
	flagged, err := g.dedup.AccountProbablySeen(ctx, userCtx.UserID, entryIDs(trending, personalized, friends))
	if err != nil {
		return nil, fmt.Errorf("plan creation aborted: %w", err)
	}
	trending = demoteFlagged(trending, flagged)
	personalized = demoteFlagged(personalized, flagged)
	friends = demoteFlagged(friends, flagged)

	selected := make([]index.Entry, 0, targetSize)
	used := make(map[string]struct{}, targetSize)
	take := func(entries []index.Entry, limit int) int {
		taken := 0
		for _, e := range entries {
			if taken >= limit {
				break
			}
			if _, ok := used[e.ID]; ok {
				continue
			}
			selected = append(selected, e)
			used[e.ID] = struct{}{}
			taken++
		}
		return taken
	}

	mix := MixSummary{
		ColdStartGenres:  coldGenres,
		ColdStartFriends: coldFriends,
	}
	mix.Trending = take(trending, tCount)
	mix.Personalized = take(personalized, pCount)
	mix.Friends = take(friends, fCount)

	// Empty-feed guard: a thin result tops up from trending regardless
	// of share.
	if len(selected) < targetSize {
		mix.ToppedUp = take(trending, targetSize-len(selected))
	}

	// Final ordering is score order with deterministic perturbation;
	// bucket order only decided who filled the slots.
	rankEntries(selected)

	ids := make([]string, len(selected))
	for i, e := range selected {
		ids[i] = e.ID
	}

	epoch := g.idx.Epoch()
	ids = tieredShuffle(ids, shuffleSeed(sessionID, epoch), p.FixedTop, p.LightWindow)

	return &Plan{
		SessionID:   sessionID,
		UserID:      userCtx.UserID,
		ItemIDs:     ids,
		Epoch:       epoch,
		GeneratedAt: time.Now().UTC(),
		TTLSeconds:  p.PlanTTLSeconds,
		Mix:         mix,
	}, nil
}

// rangeTopLogged reads a bucket and treats unavailability as a zero
// contribution for that bucket. Other buckets are not rescaled.
func (g *Generator) rangeTopLogged(bucket string, n int, role string) []index.Entry {
	entries, err := g.idx.RangeTop(bucket, n)
	if err != nil {
		slog.Warn("Bucket contributes no candidates", "bucket", bucket, "role", role, "error", err)
		return nil
	}
	return entries
}

// collectGenres merges the top entries of each genre bucket into one
// deterministically ranked candidate list.
func (g *Generator) collectGenres(genres []string, total int) []index.Entry {
	if len(genres) == 0 || total <= 0 {
		return nil
	}

	perGenre := (total + len(genres) - 1) / len(genres)

	var merged []index.Entry
	seen := make(map[string]struct{})
	for _, genre := range genres {
		entries, err := g.idx.RangeTop(index.GenreBucket(genre), perGenre)
		if err != nil {
			slog.Debug("Genre bucket unavailable", "genre", genre, "error", err)
			continue
		}
		for _, e := range entries {
			if _, ok := seen[e.ID]; ok {
				continue
			}
			seen[e.ID] = struct{}{}
			merged = append(merged, e)
		}
	}

	rankEntries(merged)
	if len(merged) > total {
		merged = merged[:total]
	}
	return merged
}

func rankEntries(entries []index.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if !entries[i].UpdatedAt.Equal(entries[j].UpdatedAt) {
			return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
}

func filterEntries(entries []index.Entry, exclude map[string]struct{}) []index.Entry {
	out := entries[:0:0]
	for _, e := range entries {
		if _, ok := exclude[e.ID]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// demoteFlagged stably partitions a candidate list into unflagged
// followed by flagged entries.
func demoteFlagged(entries []index.Entry, flagged map[string]bool) []index.Entry {
	if len(entries) == 0 {
		return entries
	}

	fresh := make([]index.Entry, 0, len(entries))
	var stale []index.Entry
	for _, e := range entries {
		if flagged[e.ID] {
			stale = append(stale, e)
		} else {
			fresh = append(fresh, e)
		}
	}
	return append(fresh, stale...)
}

func entryIDs(lists ...[]index.Entry) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, e := range list {
			if _, ok := seen[e.ID]; ok {
				continue
			}
			seen[e.ID] = struct{}{}
			ids = append(ids, e.ID)
		}
	}
	return ids
}
