package delegator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorkerRunsTasksInOrder(t *testing.T) {
	w := New("test", 8)
	w.Start()
	defer w.Stop()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		require.NoError(t, w.Submit(ctx, func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}
	wg.Wait()
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestSubmitReturnsResultViaChannel(t *testing.T) {
	w := New("test", 4)
	w.Start()
	defer w.Stop()

	result := make(chan int, 1)
	ctx := context.Background()
	require.NoError(t, w.Submit(ctx, func() { result <- 42 }))
	require.Equal(t, 42, <-result)
}

func TestSubmitAfterStopReturnsErrClosed(t *testing.T) {
	w := New("test", 4)
	w.Start()
	w.Stop()

	err := w.Submit(context.Background(), func() {})
	require.ErrorIs(t, err, ErrClosed)
}

func TestSubmitRespectsContextCancellation(t *testing.T) {
	w := New("test", 1)
	w.Start()
	defer w.Stop()

	block := make(chan struct{})
	require.NoError(t, w.Submit(context.Background(), func() { <-block }))
	// Queue capacity 1: next task fills the buffer, third must block.
	require.NoError(t, w.Submit(context.Background(), func() {}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := w.Submit(ctx, func() {})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(block)
}
