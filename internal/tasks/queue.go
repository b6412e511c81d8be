package tasks

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/ytmeta/internal/models"
)

// Job is one queued row. It carries its own snapshot so workers never read shared table state.
type Job struct {
	Row models.Row
}

// Queue is a FIFO of jobs filled once, before any worker starts.
//
// Stop is the cancellation signal: it closes a broadcast channel and drains what is left.
type Queue struct {
	rows      []models.Row
	jobs      chan Job
	stop      chan struct{}
	drained   chan struct{}
	once      sync.Once
	drainOnce sync.Once
	discarded atomic.Int64
}

// NewQueue enqueues one job per row, in row order.
func NewQueue(rows []models.Row) *Queue {
	q := &Queue{
		rows:    append([]models.Row(nil), rows...),
		jobs:    make(chan Job, len(rows)),
		stop:    make(chan struct{}),
		drained: make(chan struct{}),
	}
	for _, row := range q.rows {
		q.jobs <- Job{Row: row}
	}
	close(q.jobs)
	return q
}

// Rows returns the snapshot the queue was built from.
func (q *Queue) Rows() []models.Row {
	return q.rows
}

// Next returns the next job, or false once the queue is empty, stopped, or ctx is done.
//
// A job dequeued concurrently with Stop is discarded rather than returned.
func (q *Queue) Next(ctx context.Context) (Job, bool) {
	select {
	case <-q.stop:
		return Job{}, false
	case <-ctx.Done():
		return Job{}, false
	case job, ok := <-q.jobs:
		if !ok {
			return Job{}, false
		}
		select {
		case <-q.stop:
			q.discarded.Add(1)
			return Job{}, false
		default:
		}
		return job, true
	}
}

// Stop signals every worker and drains pending jobs, returning how many this call discarded.
//
// Safe to call more than once and from any goroutine.
func (q *Queue) Stop() int {
	q.once.Do(func() { close(q.stop) })

	n := 0
	for range q.jobs {
		n++
	}
	q.discarded.Add(int64(n))
	q.drainOnce.Do(func() { close(q.drained) })
	return n
}

// Stopped reports whether Stop has been called.
func (q *Queue) Stopped() bool {
	select {
	case <-q.stop:
		return true
	default:
		return false
	}
}

// Done is closed once Stop has drained the pending jobs, so [Queue.Discarded] is settled.
func (q *Queue) Done() <-chan struct{} {
	return q.drained
}

// Len is the number of jobs not yet dequeued.
func (q *Queue) Len() int {
	return len(q.jobs)
}

// Discarded is the total number of jobs dropped because of Stop.
func (q *Queue) Discarded() int {
	return int(q.discarded.Load())
}
