package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/Kwabenabassaw/feed-backend/app/feed"
)

// PlanStore persists feed plans in the shared store. Plans are written
// once with SET NX and read many times; the TTL bounds how long a
// session keeps its ordering.
type PlanStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ feed.PlanStore = (*PlanStore)(nil)

func NewPlanStore(client *redis.Client, ttl time.Duration) *PlanStore {
	return &PlanStore{client: client, ttl: ttl}
}

func planKey(sessionID string) string {
	return "feed_plan:" + sessionID
}

// Create stores the plan only if no plan exists for the session.
// Returns false when another worker won the race; the caller should
// read back the winner's plan.
func (s *PlanStore) Create(ctx context.Context, plan *feed.Plan) (bool, error) {
	payload, err := json.Marshal(plan)
	if err != nil {
		return false, fmt.Errorf("failed to marshal plan: %w", err)
	}

	created, err := s.client.SetNX(ctx, planKey(plan.SessionID), payload, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to create plan: %w: %w", ErrUnavailable, err)
	}
	return created, nil
}

// Get returns the plan for a session, or nil if none exists (expired or
// never created).
func (s *PlanStore) Get(ctx context.Context, sessionID string) (*feed.Plan, error) {
	payload, err := s.client.Get(ctx, planKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w: %w", ErrUnavailable, err)
	}

	var plan feed.Plan
	if err := json.Unmarshal(payload, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan %s: %w", sessionID, err)
	}
	return &plan, nil
}
