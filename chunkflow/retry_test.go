package chunkflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fastBackoff keeps retry tests quick.
func fastBackoff() Option {
	return WithBackoff(BackoffExponential, time.Millisecond, 10*time.Millisecond, 0)
}

func TestProcessWithRetry_SuccessOnFirstAttempt(t *testing.T) {
	proc := New[int](WithMaxRetries(3), fastBackoff())

	var attempts atomic.Int32
	results, err := proc.ProcessWithRetry(context.Background(), makeChunks(1), func(ctx context.Context, c Chunk) (int, error) {
		attempts.Add(1)
		return c.Len(), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := attempts.Load(); got != 1 {
		t.Errorf("expected 1 attempt, got %d", got)
	}
	if results[0].Err != nil {
		t.Errorf("unexpected chunk error: %v", results[0].Err)
	}
	if results[0].Attempts != 1 {
		t.Errorf("expected Attempts=1, got %d", results[0].Attempts)
	}
}

func TestProcessWithRetry_SuccessAfterFailures(t *testing.T) {
	proc := New[int](WithMaxRetries(5), fastBackoff())

	var attempts atomic.Int32
	results, err := proc.ProcessWithRetry(context.Background(), makeChunks(1), func(ctx context.Context, c Chunk) (int, error) {
		if attempts.Add(1) < 3 {
			return 0, errors.New("temporary failure")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := results[0]
	if r.Err != nil {
		t.Fatalf("expected success after retries, got %v", r.Err)
	}
	if r.Value != 42 {
		t.Errorf("expected value 42, got %d", r.Value)
	}
	if r.Attempts != 3 {
		t.Errorf("expected Attempts=3 (2 failures + 1 success), got %d", r.Attempts)
	}
}

func TestProcessWithRetry_ExhaustsExactlyMaxAttempts(t *testing.T) {
	const maxRetries = 3
	proc := New[int](WithMaxRetries(maxRetries), fastBackoff())

	var attempts atomic.Int32
	results, err := proc.ProcessWithRetry(context.Background(), makeChunks(1), func(ctx context.Context, c Chunk) (int, error) {
		attempts.Add(1)
		return 0, errors.New("always fails")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := attempts.Load(); got != maxRetries {
		t.Errorf("expected exactly %d attempts, got %d", maxRetries, got)
	}

	r := results[0]
	if r.Err == nil {
		t.Fatal("expected failure marker after exhausted retries")
	}
	if r.Attempts != maxRetries {
		t.Errorf("expected Attempts=%d, got %d", maxRetries, r.Attempts)
	}
	if !strings.Contains(r.Err.Error(), "after 3 attempts") {
		t.Errorf("error should mention exhausted attempts, got %v", r.Err)
	}
}

func TestProcessWithRetry_IsolatesFailures(t *testing.T) {
	proc := New[int](WithMaxConcurrency(4), WithMaxRetries(2), fastBackoff())

	chunks := makeChunks(10)
	results, err := proc.ProcessWithRetry(context.Background(), chunks, func(ctx context.Context, c Chunk) (int, error) {
		if c.Index == 3 || c.Index == 7 {
			return 0, errors.New("bad chunk")
		}
		return c.Index * 10, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(chunks) {
		t.Fatalf("expected %d results, got %d", len(chunks), len(results))
	}

	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d carries index %d", i, r.Index)
		}
		if i == 3 || i == 7 {
			if r.Err == nil {
				t.Errorf("chunk %d should carry a failure marker", i)
			}
			continue
		}
		if r.Err != nil {
			t.Errorf("chunk %d unexpectedly failed: %v", i, r.Err)
		}
		if r.Value != i*10 {
			t.Errorf("chunk %d: expected %d, got %d", i, i*10, r.Value)
		}
	}
}

func TestProcessWithRetry_SequentialMode(t *testing.T) {
	proc := New[int](WithParallelism(false), WithMaxRetries(2), fastBackoff())

	var mu sync.Mutex
	var order []int

	chunks := makeChunks(6)
	results, err := proc.ProcessWithRetry(context.Background(), chunks, func(ctx context.Context, c Chunk) (int, error) {
		mu.Lock()
		order = append(order, c.Index)
		mu.Unlock()
		if c.Index == 2 {
			return 0, errors.New("bad chunk")
		}
		return c.Index, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Chunk 2 is retried in place; the rest run once, strictly in order.
	expected := []int{0, 1, 2, 2, 3, 4, 5}
	if len(order) != len(expected) {
		t.Fatalf("expected %d invocations, got %d (%v)", len(expected), len(order), order)
	}
	for i, idx := range expected {
		if order[i] != idx {
			t.Errorf("invocation %d: expected chunk %d, got %d", i, idx, order[i])
		}
	}

	if results[2].Err == nil {
		t.Error("chunk 2 should carry a failure marker")
	}
}

func TestProcessWithRetry_BackoffDelaysBetweenAttempts(t *testing.T) {
	const initialDelay = 50 * time.Millisecond
	proc := New[int](
		WithMaxRetries(3),
		WithBackoff(BackoffExponential, initialDelay, time.Second, 0),
	)

	var mu sync.Mutex
	var attemptTimes []time.Time

	_, err := proc.ProcessWithRetry(context.Background(), makeChunks(1), func(ctx context.Context, c Chunk) (int, error) {
		mu.Lock()
		attemptTimes = append(attemptTimes, time.Now())
		mu.Unlock()
		return 0, errors.New("failure")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(attemptTimes) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(attemptTimes))
	}

	// Delays should roughly double: ~50ms then ~100ms.
	firstGap := attemptTimes[1].Sub(attemptTimes[0])
	secondGap := attemptTimes[2].Sub(attemptTimes[1])

	if firstGap < initialDelay {
		t.Errorf("first retry came after %v, expected at least %v", firstGap, initialDelay)
	}
	if secondGap < 2*initialDelay {
		t.Errorf("second retry came after %v, expected at least %v", secondGap, 2*initialDelay)
	}
}

func TestProcessWithRetry_OnRetryHook(t *testing.T) {
	var retryAttempts []int
	var mu sync.Mutex

	proc := New[int](
		WithMaxRetries(3),
		fastBackoff(),
		WithOnRetry(func(c Chunk, attempt int, err error) {
			mu.Lock()
			retryAttempts = append(retryAttempts, attempt)
			mu.Unlock()
		}),
	)

	_, err := proc.ProcessWithRetry(context.Background(), makeChunks(1), func(ctx context.Context, c Chunk) (int, error) {
		return 0, errors.New("always fails")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Hook fires after attempts 1 and 2; never after the final attempt.
	if len(retryAttempts) != 2 {
		t.Fatalf("expected 2 retry notifications, got %d", len(retryAttempts))
	}
	if retryAttempts[0] != 1 || retryAttempts[1] != 2 {
		t.Errorf("expected attempts [1 2], got %v", retryAttempts)
	}
}

func TestProcessWithRetry_OnChunkEndFiresOncePerChunk(t *testing.T) {
	var ends atomic.Int32

	proc := New[int](
		WithMaxRetries(3),
		fastBackoff(),
		WithOnChunkEnd(func(c Chunk, err error) { ends.Add(1) }),
	)

	_, err := proc.ProcessWithRetry(context.Background(), makeChunks(2), func(ctx context.Context, c Chunk) (int, error) {
		return 0, errors.New("always fails")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := ends.Load(); got != 2 {
		t.Errorf("expected on-chunk-end once per chunk (2), got %d", got)
	}
}

func TestProcessWithRetry_EmptyChunks(t *testing.T) {
	proc := New[int]()

	results, err := proc.ProcessWithRetry(context.Background(), nil, func(ctx context.Context, c Chunk) (int, error) {
		return 0, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected 0 results, got %d", len(results))
	}
}

func TestProcessWithRetry_ContextCancellation(t *testing.T) {
	proc := New[int](
		WithMaxRetries(5),
		WithBackoff(BackoffExponential, 100*time.Millisecond, time.Second, 0),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	results, err := proc.ProcessWithRetry(ctx, makeChunks(1), func(ctx context.Context, c Chunk) (int, error) {
		return 0, errors.New("failure")
	})
	// The batch reports the cancellation; the chunk slot records how far
	// it got.
	if err == nil && results[0].Err == nil {
		t.Fatal("expected cancellation to surface somewhere")
	}
	if results[0].Attempts >= 5 {
		t.Errorf("expected cancellation to cut retries short, got %d attempts", results[0].Attempts)
	}
}
