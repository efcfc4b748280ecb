package writer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Mnemo/pkg/logger"
)

// InProcessQueue is a buffered in-memory queue for deployments without a
// broker. Enqueue never blocks: when the buffer is full the task is rejected
// and the memory update for that turn is lost.
type InProcessQueue struct {
	tasks  chan *Task
	writer *Writer
	log    *logger.Logger

	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

// NewInProcessQueue builds a queue with the given buffer size and starts
// workers goroutines draining it.
func NewInProcessQueue(w *Writer, buffer, workers int, log *logger.Logger) *InProcessQueue {
	if buffer <= 0 {
		buffer = 64
	}
	if workers <= 0 {
		workers = 1
	}
	q := &InProcessQueue{
		tasks:  make(chan *Task, buffer),
		writer: w,
		log:    log,
		done:   make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	return q
}

func (q *InProcessQueue) run() {
	defer q.wg.Done()
	// Workers get a background context: a turn finishing must not cancel the
	// commit it enqueued.
	ctx := context.Background()
	for {
		select {
		case <-q.done:
			// Drain what is already buffered before stopping.
			for {
				select {
				case task := <-q.tasks:
					q.writer.Process(ctx, task)
				default:
					q.log.WithStage("memory_queue").Debug("worker drained and stopped")
					return
				}
			}
		case task := <-q.tasks:
			q.writer.Process(ctx, task)
		}
	}
}

// Enqueue hands the task to a worker without blocking.
func (q *InProcessQueue) Enqueue(ctx context.Context, task *Task) error {
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}
	select {
	case <-q.done:
		return fmt.Errorf("memory queue closed")
	case q.tasks <- task:
		return nil
	default:
		return fmt.Errorf("memory queue full")
	}
}

// Close stops the workers after the buffered tasks are drained.
func (q *InProcessQueue) Close() error {
	q.once.Do(func() { close(q.done) })
	q.wg.Wait()
	return nil
}
