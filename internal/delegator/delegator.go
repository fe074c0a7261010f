// Package delegator serializes access to a single owned resource (the
// value store, or the server's mutable attributes) through exactly one
// worker goroutine draining a bounded task queue, adapted from the
// teacher's WorkerPool.
package delegator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/odinkv/kvstored/internal/metrics"
)

// ErrClosed is returned by Submit once the worker has been stopped.
var ErrClosed = errors.New("delegator: worker stopped")

// Task is a unit of serialized work. Unlike the teacher's fire-and-drop
// pool, every task here must eventually run — commands carry a reply
// that a client is waiting on — so Submit blocks (respecting ctx)
// rather than discarding work when the queue is full.
type Task func()

// Worker drains exactly one queue with exactly one goroutine, giving
// every task submitted to it a total order relative to every other
// task submitted to the same Worker.
type Worker struct {
	name  string
	queue chan Task

	depth atomic.Int64

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// New builds a Worker with the given queue capacity. name is used only
// to label the queue-depth metric.
func New(name string, queueSize int) *Worker {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Worker{
		name:   name,
		queue:  make(chan Task, queueSize),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the worker goroutine. Call once before Submit.
func (w *Worker) Start() {
	go w.run()
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		select {
		case task := <-w.queue:
			w.depth.Add(-1)
			metrics.DelegatorQueueDepth.WithLabelValues(w.name).Set(float64(w.depth.Load()))
			task()
		case <-w.closed:
			w.drain()
			return
		}
	}
}

// drain runs any tasks still queued at shutdown so callers blocked in
// Submit are not left waiting forever, then exits once the queue is
// empty.
func (w *Worker) drain() {
	for {
		select {
		case task := <-w.queue:
			w.depth.Add(-1)
			task()
		default:
			return
		}
	}
}

// Submit enqueues task, blocking until the queue has room, ctx is
// cancelled, or the worker has been stopped. It does not wait for the
// task to run — callers that need the result pass a task that writes
// into a channel they then receive from.
func (w *Worker) Submit(ctx context.Context, task Task) error {
	select {
	case <-w.closed:
		return ErrClosed
	default:
	}

	select {
	case w.queue <- task:
		w.depth.Add(1)
		metrics.DelegatorQueueDepth.WithLabelValues(w.name).Set(float64(w.depth.Load()))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.closed:
		return ErrClosed
	}
}

// QueueDepth reports the current number of tasks waiting to run.
func (w *Worker) QueueDepth() int64 {
	return w.depth.Load()
}

// Stop signals the worker to finish its queued tasks and exit, then
// blocks until it has. Safe to call more than once.
func (w *Worker) Stop() {
	w.closeOnce.Do(func() { close(w.closed) })
	<-w.done
}
