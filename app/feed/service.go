package feed

import (
	"context"

	"github.com/google/uuid"

	"github.com/Kwabenabassaw/feed-backend/app/cfg"
)

// Page is one hydrated slice of a session's plan.
type Page struct {
	Items      []Item
	SessionID  string
	NextCursor string
	HasMore    bool
	Degraded   []string
}

// Service runs the request pipeline: context load, plan get-or-create,
// slice, hydrate.
type Service struct {
	contexts  *ContextLoader
	generator *Generator
	paginator *Paginator
	hydrator  *Hydrator
	params    *cfg.Params
}

func NewService(contexts *ContextLoader, generator *Generator, paginator *Paginator, hydrator *Hydrator, params *cfg.Params) *Service {
	return &Service{
		contexts:  contexts,
		generator: generator,
		paginator: paginator,
		hydrator:  hydrator,
		params:    params,
	}
}

// GetFeed serves one page. An empty cursor starts a new session and
// generates its plan; a cursor pages the existing plan without
// re-running generation.
func (s *Service) GetFeed(ctx context.Context, userID, cursor string, limit int) (*Page, error) {
	var (
		ids        []string
		sessionID  string
		nextCursor string
		hasMore    bool
		degraded   []string
	)

	if cursor == "" {
		sessionID = uuid.NewString()

		userCtx := s.contexts.Load(ctx, userID)
		degraded = userCtx.Degraded

		plan, err := s.generator.GetOrCreatePlan(ctx, userCtx, sessionID, s.planTarget(limit))
		if err != nil {
			return nil, err
		}

		ids, nextCursor, hasMore, err = SlicePlan(plan, 0, limit)
		if err != nil {
			return nil, err
		}
	} else {
		sid, offset, err := DecodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		sessionID = sid

		ids, nextCursor, hasMore, err = s.paginator.Slice(ctx, sessionID, offset, limit)
		if err != nil {
			return nil, err
		}
	}

	items, err := s.hydrator.Hydrate(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &Page{
		Items:      items,
		SessionID:  sessionID,
		NextCursor: nextCursor,
		HasMore:    hasMore,
		Degraded:   degraded,
	}, nil
}

// planTarget sizes a new plan to cover several pages ahead of the
// current request.
func (s *Service) planTarget(limit int) int {
	target := limit * 3
	if target < s.params.PlanSize {
		target = s.params.PlanSize
	}
	return target
}
