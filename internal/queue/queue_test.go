package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePushPop(t *testing.T) {
	q := NewInMemoryQueue()

	require.NoError(t, q.Push(&Task{ID: "a", URL: "https://shopee.com.br/x-i.1.2"}))
	require.NoError(t, q.Push(&Task{ID: "b", URL: "https://shopee.com.br/y-i.3.4"}))
	assert.Equal(t, 2, q.Size())

	task, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", task.ID)

	task, err = q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", task.ID)
	assert.Equal(t, 0, q.Size())
}

func TestQueuePriorityOrder(t *testing.T) {
	q := NewInMemoryQueue()

	require.NoError(t, q.Push(&Task{ID: "low", Priority: 0}))
	require.NoError(t, q.Push(&Task{ID: "high", Priority: 10}))
	require.NoError(t, q.Push(&Task{ID: "mid", Priority: 5}))

	want := []string{"high", "mid", "low"}
	for _, id := range want {
		task, err := q.Pop(context.Background())
		require.NoError(t, err)
		assert.Equal(t, id, task.ID)
	}
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := NewInMemoryQueue()

	got := make(chan *Task, 1)
	go func() {
		task, err := q.Pop(context.Background())
		if err == nil {
			got <- task
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Push(&Task{ID: "late"}))

	select {
	case task := <-got:
		assert.Equal(t, "late", task.ID)
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after Push")
	}
}

func TestQueuePopHonorsContext(t *testing.T) {
	q := NewInMemoryQueue()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// Cancelling a Pop blocked on an empty queue must neither crash nor leave
// the queue unusable, no matter how the cancellation races the block.
// Loop enough times to catch regressions in the wakeup path.
func TestQueuePopCancelledRepeatedly(t *testing.T) {
	q := NewInMemoryQueue()

	for i := 0; i < 500; i++ {
		ctx, cancel := context.WithCancel(context.Background())

		errCh := make(chan error, 1)
		go func() {
			_, err := q.Pop(ctx)
			errCh <- err
		}()

		cancel()

		select {
		case err := <-errCh:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatalf("iteration %d: Pop did not return after cancel", i)
		}
	}

	// Queue still works after all the cancelled waits.
	require.NoError(t, q.Push(&Task{ID: "after"}))
	task, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "after", task.ID)
}

func TestQueueClose(t *testing.T) {
	q := NewInMemoryQueue()

	require.NoError(t, q.Push(&Task{ID: "pending"}))
	require.NoError(t, q.Close())

	// Already queued tasks still drain after close.
	task, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pending", task.ID)

	_, err = q.Pop(context.Background())
	assert.ErrorIs(t, err, ErrQueueClosed)

	assert.ErrorIs(t, q.Push(&Task{ID: "rejected"}), ErrQueueClosed)
}
