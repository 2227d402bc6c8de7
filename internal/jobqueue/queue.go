// Package jobqueue runs named jobs one at a time, in the order they were
// added, stopping at the first failure.
package jobqueue

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Job is one unit of work.
type Job func(ctx context.Context) error

// Listener observes a queue's progress. Callbacks run on the goroutine
// executing the jobs.
type Listener interface {
	// OnJobStarted is called before each job runs, including a job that
	// then fails.
	OnJobStarted(name string)

	// OnProgress is called after each successful job with the number of
	// jobs completed and the number added so far.
	OnProgress(completed, total int)

	// OnFinish is called once when Run or Serve returns.
	OnFinish(err error)
}

// Listeners adapts plain functions to Listener. Nil fields are skipped.
type Listeners struct {
	Started  func(name string)
	Progress func(completed, total int)
	Finish   func(err error)
}

func (l Listeners) OnJobStarted(name string) {
	if l.Started != nil {
		l.Started(name)
	}
}

func (l Listeners) OnProgress(completed, total int) {
	if l.Progress != nil {
		l.Progress(completed, total)
	}
}

func (l Listeners) OnFinish(err error) {
	if l.Finish != nil {
		l.Finish(err)
	}
}

// JobError identifies the job that stopped the queue.
type JobError struct {
	Name string
	Err  error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %q: %v", e.Name, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

type namedJob struct {
	name string
	fn   Job
}

// Queue is a thread-safe FIFO of jobs.
//
// Jobs may be added from any goroutine, including while the queue runs.
// The queue uses a channel for signaling so Serve can wait for new jobs
// and still honour context cancellation.
type Queue struct {
	mu        sync.Mutex
	jobs      []namedJob
	total     int
	completed int
	closed    bool
	signal    chan struct{} // buffered, size 1
	listeners []Listener
	logger    *zap.Logger
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger used for job lifecycle messages.
func WithLogger(l *zap.Logger) Option {
	return func(q *Queue) {
		q.logger = l
	}
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		jobs:   make([]namedJob, 0, 16),
		signal: make(chan struct{}, 1),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// AddJob appends a job. It returns false if the queue is closed.
func (q *Queue) AddJob(name string, fn Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.jobs = append(q.jobs, namedJob{name: name, fn: fn})
	q.total++

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// AddListener registers l for progress notifications.
func (q *Queue) AddListener(l Listener) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.listeners = append(q.listeners, l)
}

// Len returns the number of jobs waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Close signals that no more jobs will be added and wakes a waiting Serve.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Run executes the queued jobs in order until none are left.
//
// The first failing job stops the queue: its error is returned wrapped in a
// *JobError and the jobs after it are discarded. Cancelling ctx stops the
// queue between jobs.
func (q *Queue) Run(ctx context.Context) error {
	return q.finish(q.drain(ctx))
}

// Serve is like Run but waits for more jobs until the queue is closed and
// empty, or ctx is done.
func (q *Queue) Serve(ctx context.Context) error {
	for {
		if err := q.drain(ctx); err != nil {
			return q.finish(err)
		}

		q.mu.Lock()
		done := q.closed && len(q.jobs) == 0
		q.mu.Unlock()
		if done {
			return q.finish(nil)
		}

		select {
		case <-ctx.Done():
			return q.finish(ctx.Err())
		case <-q.signal:
		}
	}
}

// drain runs jobs until the queue is empty or one fails.
func (q *Queue) drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		job, ok := q.next()
		if !ok {
			return nil
		}

		for _, l := range q.snapshotListeners() {
			l.OnJobStarted(job.name)
		}
		q.logger.Debug("job started", zap.String("job", job.name))

		if err := job.fn(ctx); err != nil {
			q.logger.Warn("job failed", zap.String("job", job.name), zap.Error(err))
			q.discard()
			return &JobError{Name: job.name, Err: err}
		}

		q.mu.Lock()
		q.completed++
		completed, total := q.completed, q.total
		q.mu.Unlock()

		for _, l := range q.snapshotListeners() {
			l.OnProgress(completed, total)
		}
	}
}

// next pops the front job.
func (q *Queue) next() (namedJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return namedJob{}, false
	}
	job := q.jobs[0]

	// Release the closure so the backing array does not retain it.
	q.jobs[0] = namedJob{}
	if len(q.jobs) == 1 {
		q.jobs = q.jobs[:0]
	} else {
		q.jobs = q.jobs[1:]
	}
	return job, true
}

func (q *Queue) discard() {
	q.mu.Lock()
	defer q.mu.Unlock()
	clear(q.jobs)
	q.jobs = q.jobs[:0]
}

func (q *Queue) snapshotListeners() []Listener {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Listener(nil), q.listeners...)
}

// finish notifies listeners and resets the progress counters.
func (q *Queue) finish(err error) error {
	q.mu.Lock()
	completed, total := q.completed, q.total
	q.completed, q.total = 0, len(q.jobs)
	q.mu.Unlock()

	q.logger.Debug("queue finished",
		zap.Int("completed", completed),
		zap.Int("total", total),
		zap.Error(err))

	for _, l := range q.snapshotListeners() {
		l.OnFinish(err)
	}
	return err
}
