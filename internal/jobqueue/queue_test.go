package jobqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recorder collects job and listener activity.
type recorder struct {
	mu       sync.Mutex
	ran      []string
	started  []string
	progress [][2]int
	finished []error
}

func (r *recorder) job(name string, delay time.Duration, err error) Job {
	return func(ctx context.Context) error {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		r.mu.Lock()
		r.ran = append(r.ran, name)
		r.mu.Unlock()
		return err
	}
}

func (r *recorder) OnJobStarted(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, name)
}

func (r *recorder) OnProgress(completed, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, [2]int{completed, total})
}

func (r *recorder) OnFinish(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, err)
}

func TestRunInOrder(t *testing.T) {
	q := New()
	rec := &recorder{}
	q.AddListener(rec)

	// Later jobs are faster; order must still hold.
	q.AddJob("first", rec.job("first", 15*time.Millisecond, nil))
	q.AddJob("second", rec.job("second", 5*time.Millisecond, nil))
	q.AddJob("third", rec.job("third", 0, nil))

	require.NoError(t, q.Run(context.Background()))

	assert.Equal(t, []string{"first", "second", "third"}, rec.ran)
	assert.Equal(t, []string{"first", "second", "third"}, rec.started)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, rec.progress)
	assert.Equal(t, []error{nil}, rec.finished)
	assert.Equal(t, 0, q.Len())
}

func TestRunStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	q := New()
	rec := &recorder{}
	q.AddListener(rec)

	q.AddJob("first", rec.job("first", 0, nil))
	q.AddJob("second", rec.job("second", 0, boom))
	q.AddJob("third", rec.job("third", 0, nil))

	err := q.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var je *JobError
	require.ErrorAs(t, err, &je)
	assert.Equal(t, "second", je.Name)

	assert.Equal(t, []string{"first", "second"}, rec.ran)
	// The failing job is reported as started but never as completed.
	assert.Equal(t, []string{"first", "second"}, rec.started)
	assert.Equal(t, [][2]int{{1, 3}}, rec.progress)
	require.Len(t, rec.finished, 1)
	assert.ErrorIs(t, rec.finished[0], boom)
	assert.Equal(t, 0, q.Len(), "jobs after the failure are discarded")
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := New()
	rec := &recorder{}

	q.AddJob("first", func(context.Context) error {
		cancel()
		return nil
	})
	q.AddJob("second", rec.job("second", 0, nil))

	err := q.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.ran)
}

func TestRunEmptyQueue(t *testing.T) {
	q := New()
	rec := &recorder{}
	q.AddListener(rec)

	require.NoError(t, q.Run(context.Background()))
	assert.Equal(t, []error{nil}, rec.finished)
	assert.Empty(t, rec.progress)
}

func TestServeRunsJobsAddedConcurrently(t *testing.T) {
	q := New()
	rec := &recorder{}

	done := make(chan error, 1)
	go func() {
		done <- q.Serve(context.Background())
	}()

	for _, name := range []string{"a", "b", "c"} {
		require.True(t, q.AddJob(name, rec.job(name, time.Millisecond, nil)))
	}
	q.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
	assert.Equal(t, []string{"a", "b", "c"}, rec.ran)
	assert.False(t, q.AddJob("late", rec.job("late", 0, nil)), "closed queue accepts no jobs")
}

func TestServeReturnsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := New()

	done := make(chan error, 1)
	go func() {
		done <- q.Serve(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve ignored cancellation")
	}
}

func TestListenersAdapterSkipsNilFuncs(t *testing.T) {
	var finished error = errors.New("unset")
	q := New()
	q.AddListener(Listeners{Finish: func(err error) { finished = err }})
	q.AddJob("only", func(context.Context) error { return nil })

	require.NoError(t, q.Run(context.Background()))
	assert.NoError(t, finished)
}

func TestCloseIsIdempotent(t *testing.T) {
	q := New()
	q.Close()
	assert.NotPanics(t, q.Close)
}
