package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsJobs(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		done <- job
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	queued, err := q.Enqueue("exports.prune")
	require.NoError(t, err)

	select {
	case job := <-done:
		assert.Equal(t, queued.ID, job.ID)
		assert.Equal(t, "exports.prune", job.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan int, 1)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("database is locked")
		}
		done <- job.Attempt
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue("backup.create")
	require.NoError(t, err)

	select {
	case attempt := <-done:
		assert.Equal(t, 2, attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
}

func TestQueueRejectsWhenNotStarted(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	_, err := q.Enqueue("exports.prune")
	assert.Error(t, err)
	assert.Error(t, q.Every(time.Second, "exports.prune"))
	q.Stop()
}

func TestQueueFull(t *testing.T) {
	release := make(chan struct{})
	q := NewQueue("test", func(context.Context, Job) error {
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer func() {
		close(release)
		q.Stop()
	}()

	var full bool
	for i := 0; i < 4; i++ {
		if _, err := q.Enqueue("exports.prune"); errors.Is(err, ErrQueueFull) {
			full = true
			break
		}
	}
	assert.True(t, full)
}

func TestQueueEverySchedules(t *testing.T) {
	var calls int32
	q := NewQueue("test", func(context.Context, Job) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	require.NoError(t, q.Every(5*time.Millisecond, "exports.prune"))
	require.NoError(t, q.Every(0, "disabled"))

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 2 }, 2*time.Second, 5*time.Millisecond)
	q.Stop()
}
