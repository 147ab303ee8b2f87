package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/Kwabenabassaw/feed-backend/app/analytics"
)

type FlushEventsTask struct {
	Task
	emitter *analytics.Emitter
}

func NewFlushEventsTask(emitter *analytics.Emitter) *FlushEventsTask {
	return &FlushEventsTask{
		Task:    NewTask(TaskTypeFlushEvents, ""),
		emitter: emitter,
	}
}

func (t *FlushEventsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	flushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := t.emitter.Flush(flushCtx); err != nil {
		return fmt.Errorf("failed to flush events: %w", err)
	}

	return nil
}
