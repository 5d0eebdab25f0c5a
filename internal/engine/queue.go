package engine

import (
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// extractionTask carries raw text to the background fact/procedure
// extraction pass, with the originating memory's id for provenance.
type extractionTask struct {
	text     string
	memoryID string
}

// extractionQueue is a FIFO of pending extraction work drained by at most one
// goroutine at a time. Enqueuing never blocks the caller; a task that panics
// is dropped and the drain continues with the next one.
type extractionQueue struct {
	mu      sync.Mutex
	tasks   []extractionTask
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	process func(extractionTask)
	log     *zap.Logger
}

func newExtractionQueue(process func(extractionTask), log *zap.Logger) *extractionQueue {
	return &extractionQueue{
		sem:     semaphore.NewWeighted(1),
		process: process,
		log:     log,
	}
}

// enqueue appends a task and kicks a drain in the background. Fire-and-forget
// from the caller's point of view.
func (q *extractionQueue) enqueue(t extractionTask) {
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	// Add inside the lock: once the task is visible a concurrent drain may
	// finish it, and Done before Add panics the WaitGroup.
	q.wg.Add(1)
	q.mu.Unlock()

	go q.drain()
}

// drain processes queued tasks one at a time. The semaphore guarantees a
// single drainer; losers of the acquire return immediately because the
// winner will sweep their tasks. The re-check after release closes the
// window where a task lands just as the previous drain finishes.
func (q *extractionQueue) drain() {
	for {
		if !q.sem.TryAcquire(1) {
			return
		}
		for {
			t, ok := q.pop()
			if !ok {
				break
			}
			q.run(t)
		}
		q.sem.Release(1)

		q.mu.Lock()
		empty := len(q.tasks) == 0
		q.mu.Unlock()
		if empty {
			return
		}
	}
}

// run executes one task, containing any panic so a bad task cannot abort the
// queue.
func (q *extractionQueue) run(t extractionTask) {
	defer q.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			q.log.Warn("extraction task panicked, skipping",
				zap.String("memory_id", t.memoryID),
				zap.Any("panic", r))
		}
	}()
	q.process(t)
}

func (q *extractionQueue) pop() (extractionTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return extractionTask{}, false
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	return t, true
}

// pending returns the number of tasks not yet picked up.
func (q *extractionQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// flush blocks until every enqueued task has been processed.
func (q *extractionQueue) flush() {
	q.wg.Wait()
}
