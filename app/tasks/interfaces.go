package tasks

// TaskSchedulerInterface defines the interface for background task
// scheduling. The main application uses it to run periodic index
// snapshot refreshes through a bounded worker pool.
// Example usage:
//
//	scheduler := NewScheduler(loader, params)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewRefreshIndexTask(loader, bucket))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
