package syncx

import "sync"

// Lock serializes a critical section across concurrent tasks. Waiters queue
// in FIFO order (sync.Mutex hands off to the longest waiter under
// starvation mode, which is what the transfer accounting relies on).
//
// Lock is not reentrant: calling RunExclusive from inside fn on the same
// Lock deadlocks.
type Lock struct {
	mu sync.Mutex
}

// RunExclusive runs fn with at most one concurrent invocation for this Lock
// instance. The lock is released exactly once per acquisition regardless of
// fn's outcome, and fn's error propagates to the caller.
func (l *Lock) RunExclusive(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}
