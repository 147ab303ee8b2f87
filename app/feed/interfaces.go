package feed

import (
	"context"

	"github.com/Kwabenabassaw/feed-backend/app/index"
)

// CandidateIndex is the read side of the index pool.
type CandidateIndex interface {
	RangeTop(bucket string, n int) ([]index.Entry, error)
	Exists(bucket string) bool
	Epoch() int64
}

// DedupStore is the shared two-tier seen-content record.
type DedupStore interface {
	SessionSeen(ctx context.Context, sessionID string) (map[string]struct{}, error)
	SessionMark(ctx context.Context, sessionID string, ids []string) error
	AccountProbablySeen(ctx context.Context, userID string, ids []string) (map[string]bool, error)
	AccountMark(ctx context.Context, userID string, ids []string) error
}

// PlanStore persists immutable plans keyed by session id. Create is
// conditional-on-absence so concurrent first requests race safely.
type PlanStore interface {
	Create(ctx context.Context, plan *Plan) (bool, error)
	Get(ctx context.Context, sessionID string) (*Plan, error)
}

// ContextCache is a best-effort read-through cache for user contexts.
// Misses and errors are equivalent; it never fails a request.
type ContextCache interface {
	GetUserContext(ctx context.Context, userID string) (*UserContext, bool)
	SetUserContext(ctx context.Context, userCtx *UserContext)
}
