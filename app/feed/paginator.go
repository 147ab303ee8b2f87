package feed

import (
	"context"
	"fmt"
)

// Paginator slices persisted plans. Slicing is a pure read over the
// immutable id sequence, so concurrent page requests for one session
// need no locking.
type Paginator struct {
	plans PlanStore
}

func NewPaginator(plans PlanStore) *Paginator {
	return &Paginator{plans: plans}
}

// Slice returns the ids for one page of the session's plan plus the
// cursor for the next page. A session with no live plan returns
// ErrExpiredSession.
func (p *Paginator) Slice(ctx context.Context, sessionID string, offset, pageSize int) ([]string, string, bool, error) {
	plan, err := p.plans.Get(ctx, sessionID)
	if err != nil {
		return nil, "", false, err
	}
	if plan == nil {
		return nil, "", false, fmt.Errorf("%w: %s", ErrExpiredSession, sessionID)
	}

	return SlicePlan(plan, offset, pageSize)
}

// SlicePlan slices an already-loaded plan. Split out so callers that
// just generated the plan can page it without a second store read.
func SlicePlan(plan *Plan, offset, pageSize int) ([]string, string, bool, error) {
	if offset < 0 || pageSize <= 0 {
		return nil, "", false, fmt.Errorf("%w: bad offset %d or page size %d", ErrInvalidCursor, offset, pageSize)
	}

	total := len(plan.ItemIDs)
	if offset >= total {
		return []string{}, "", false, nil
	}

	end := offset + pageSize
	if end > total {
		end = total
	}

	ids := make([]string, end-offset)
	copy(ids, plan.ItemIDs[offset:end])

	hasMore := end < total
	nextCursor := ""
	if hasMore {
		nextCursor = EncodeCursor(plan.SessionID, end)
	}

	return ids, nextCursor, hasMore, nil
}
