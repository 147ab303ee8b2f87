package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kwabenabassaw/feed-backend/app/index"
)

type RefreshIndexTask struct {
	Task
	loader *index.Loader
}

func NewRefreshIndexTask(loader *index.Loader, bucket string) *RefreshIndexTask {
	return &RefreshIndexTask{
		Task:   NewTask(TaskTypeRefreshIndex, bucket),
		loader: loader,
	}
}

func (t *RefreshIndexTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := t.loader.Refresh(fetchCtx, t.Bucket); err != nil {
		return fmt.Errorf("failed to refresh index: %w", err)
	}

	slog.Info("Task completed",
		"type", "RefreshIndex",
		"bucket", t.Bucket,
		"duration", t.GetDuration())

	return nil
}
