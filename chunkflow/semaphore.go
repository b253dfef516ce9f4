package chunkflow

import "context"

// Semaphore is a counting concurrency gate backed by a buffered channel.
// The channel capacity is the permit count: acquiring sends a token,
// releasing receives one back. Goroutines blocked in Acquire are parked by
// the runtime in arrival order, so permits freed by Release are handed to
// waiters first-come first-served.
//
// A Semaphore is created per executor invocation and discarded when the
// batch finishes; it is the only shared resource between chunk tasks.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore creates a semaphore with the given number of permits.
// Values below 1 are clamped to 1 rather than rejected, keeping the
// constructor permissive for callers that compute their own bounds.
func NewSemaphore(permits int) *Semaphore {
	if permits < 1 {
		permits = 1
	}
	return &Semaphore{slots: make(chan struct{}, permits)}
}

// Acquire blocks until a permit is available or the context is done.
// Every successful Acquire must be paired with exactly one Release; use
// defer immediately after acquiring so the permit is returned on every
// exit path, including panics in the protected section:
//
//	if err := sem.Acquire(ctx); err != nil {
//	    return err
//	}
//	defer sem.Release()
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire acquires a permit without blocking, reporting whether one was
// available. It inherits channel barging: a TryAcquire may win a permit
// ahead of goroutines already blocked in Acquire.
func (s *Semaphore) TryAcquire() bool {
	select {
	case s.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns one permit. Calling Release without a matching Acquire
// is a caller bug; the semaphore does not defend against it.
func (s *Semaphore) Release() {
	<-s.slots
}

// InUse reports how many permits are currently held.
func (s *Semaphore) InUse() int { return len(s.slots) }

// Cap reports the total permit capacity.
func (s *Semaphore) Cap() int { return cap(s.slots) }
