package octree

// Scheduler defers a task to a later turn of the host's work loop.
// Tasks must run on the goroutine that owns the index.
type Scheduler interface {
	Schedule(task func())
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(task func())

// Schedule calls f(task).
func (f SchedulerFunc) Schedule(task func()) {
	f(task)
}

// TaskQueue is a run-to-completion FIFO of deferred tasks. The owner drains it at a
// point where no mutation is in progress, usually once per frame or simulation tick.
type TaskQueue struct {
	tasks []func()
	spare []func()
}

// Schedule appends task to the queue.
func (q *TaskQueue) Schedule(task func()) {
	q.tasks = append(q.tasks, task)
}

// Len returns the number of queued tasks.
func (q *TaskQueue) Len() int {
	return len(q.tasks)
}

// RunPending runs the tasks queued before the call, in order. Tasks scheduled while
// draining wait for the next call. Returns the number of tasks run.
func (q *TaskQueue) RunPending() int {
	batch := q.tasks
	q.tasks = q.spare[:0]
	for i, task := range batch {
		task()
		batch[i] = nil
	}
	q.spare = batch[:0]
	return len(batch)
}
