package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Kwabenabassaw/feed-backend/app/analytics"
	"github.com/Kwabenabassaw/feed-backend/app/cfg"
	"github.com/Kwabenabassaw/feed-backend/app/index"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	loader      *index.Loader
	emitter     *analytics.Emitter
	params      *cfg.Params
	baseBuckets []string
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(loader *index.Loader, emitter *analytics.Emitter, params *cfg.Params) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		loader:      loader,
		emitter:     emitter,
		params:      params,
		baseBuckets: cfg.IndexBuckets,
		interval:    time.Duration(cfg.IndexRefreshInterval) * time.Second,
		workerCount: cfg.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// refreshBuckets is the full schedule: the configured base buckets plus
// one genre bucket per known genre. Friend activity buckets are pushed
// by the indexing job, not refreshed here.
func (s *Scheduler) refreshBuckets() []string {
	buckets := make([]string, 0, len(s.baseBuckets)+len(s.params.Genres))
	buckets = append(buckets, s.baseBuckets...)
	for _, genre := range s.params.Genres {
		buckets = append(buckets, index.GenreBucket(genre))
	}
	return buckets
}

func (s *Scheduler) enqueueTasks() {
	buckets := s.refreshBuckets()
	slog.Debug("Scheduling index refreshes", "count", len(buckets))

	for _, bucket := range buckets {
		task := NewRefreshIndexTask(s.loader, bucket)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue RefreshIndexTask", "bucket", bucket, "error", err)
		}
	}

	if s.emitter != nil {
		if err := s.EnqueueTask(NewFlushEventsTask(s.emitter)); err != nil {
			slog.Warn("Failed to enqueue FlushEventsTask", "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "bucket", task.GetBucket(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
