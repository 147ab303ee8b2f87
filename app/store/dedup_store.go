package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable signals that the shared store could not be reached.
// Plan creation must abort on it; falling back to process-local state
// breaks correctness with multiple workers.
var ErrUnavailable = errors.New("shared store unavailable")

// DedupStore is the two-tier record of previously shown content:
// session sets (exact, TTL-bound) and per-account Bloom bitmaps
// (probabilistic, long-lived, soft signal only).
type DedupStore struct {
	client     *redis.Client
	sessionTTL time.Duration
	bloomTTL   time.Duration
	bloom      bloomParams
}

func NewDedupStore(client *redis.Client, sessionTTL, bloomTTL time.Duration, bloomCapacity int, bloomFPRate float64) *DedupStore {
	return &DedupStore{
		client:     client,
		sessionTTL: sessionTTL,
		bloomTTL:   bloomTTL,
		bloom:      newBloomParams(bloomCapacity, bloomFPRate),
	}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func bloomKey(userID string) string {
	return "dedup:bloom:" + userID
}

// SessionSeen returns the exact set of ids already emitted for the
// session.
func (s *DedupStore) SessionSeen(ctx context.Context, sessionID string) (map[string]struct{}, error) {
	ids, err := s.client.SMembers(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session set: %w: %w", ErrUnavailable, err)
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}

// SessionMark records ids as emitted for the session and refreshes the
// session TTL.
func (s *DedupStore) SessionMark(ctx context.Context, sessionID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}

	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, sessionKey(sessionID), members...)
	pipe.Expire(ctx, sessionKey(sessionID), s.sessionTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to mark session ids: %w: %w", ErrUnavailable, err)
	}
	return nil
}

// AccountProbablySeen tests ids against the user's Bloom bitmap. A true
// result may be a false positive; callers use it to bias ranking, never
// to hard-exclude.
func (s *DedupStore) AccountProbablySeen(ctx context.Context, userID string, ids []string) (map[string]bool, error) {
	result := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	key := bloomKey(userID)
	pipe := s.client.Pipeline()

	cmds := make(map[string][]*redis.IntCmd, len(ids))
	for _, id := range ids {
		offsets := s.bloom.offsets(id)
		bits := make([]*redis.IntCmd, len(offsets))
		for i, off := range offsets {
			bits[i] = pipe.GetBit(ctx, key, int64(off))
		}
		cmds[id] = bits
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to test account bloom: %w: %w", ErrUnavailable, err)
	}

	for id, bits := range cmds {
		all := true
		for _, cmd := range bits {
			if cmd.Val() == 0 {
				all = false
				break
			}
		}
		result[id] = all
	}
	return result, nil
}

// AccountMark records ids in the user's Bloom bitmap. The key carries a
// TTL so long-lived filters reset periodically instead of saturating.
func (s *DedupStore) AccountMark(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	key := bloomKey(userID)
	pipe := s.client.Pipeline()

	for _, id := range ids {
		for _, off := range s.bloom.offsets(id) {
			pipe.SetBit(ctx, key, int64(off), 1)
		}
	}
	pipe.ExpireNX(ctx, key, s.bloomTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to mark account bloom: %w: %w", ErrUnavailable, err)
	}
	return nil
}
