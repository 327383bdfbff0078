// Package syncx provides the concurrency primitives coordinating multipart
// transfers: a counting semaphore with strict FIFO waiter handoff and a
// mutual-exclusion lock exposing a run-exclusive critical section.
package syncx

import (
	"container/list"
	"sync"

	osserrors "github.com/aa2013/ali-yun-oss/errors"
)

// Semaphore is a counting semaphore with FIFO fairness: while any waiter is
// queued, a released permit is handed directly to the oldest waiter instead
// of returning to the pool.
//
// Acquire and Release must be paired by the caller even on error paths
// (release in a defer). The semaphore carries no timeout or cancellation of
// its own; callers check their own cancellation signal around Acquire.
type Semaphore struct {
	mu      sync.Mutex
	permits int
	waiters *list.List // of chan struct{}
}

// NewSemaphore creates a semaphore with the given number of permits.
// maxPermits must be positive.
func NewSemaphore(maxPermits int) (*Semaphore, error) {
	if maxPermits <= 0 {
		return nil, osserrors.NewError("newSemaphore", osserrors.ErrInvalidArgument).
			WithMessage("maxPermits must be positive")
	}
	return &Semaphore{
		permits: maxPermits,
		waiters: list.New(),
	}, nil
}

// Acquire takes a permit, blocking until one is available. Waiters are
// granted permits in arrival order.
func (s *Semaphore) Acquire() {
	s.mu.Lock()
	if s.permits > 0 && s.waiters.Len() == 0 {
		s.permits--
		s.mu.Unlock()
		return
	}
	ready := make(chan struct{})
	s.waiters.PushBack(ready)
	s.mu.Unlock()
	<-ready
}

// Release returns a permit. If waiters are queued the permit goes straight
// to the oldest one; it is never banked while a waiter exists.
func (s *Semaphore) Release() {
	s.mu.Lock()
	if front := s.waiters.Front(); front != nil {
		s.waiters.Remove(front)
		close(front.Value.(chan struct{}))
		s.mu.Unlock()
		return
	}
	s.permits++
	s.mu.Unlock()
}
