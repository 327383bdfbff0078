// Package cancelreg maps logical request keys to cancellation handles,
// enabling "cancel this specific operation" semantics across a client's
// in-flight requests.
package cancelreg

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Handle is one live cancellation point. Triggering it cancels the context
// the owning operation runs under.
type Handle struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHandle wraps parent in a cancellable context and returns its handle.
// Handles created this way directly (rather than through a Registry) are
// caller-owned: the registry never removes or triggers them.
func NewHandle(parent context.Context) *Handle {
	ctx, cancel := context.WithCancel(parent)
	return &Handle{ctx: ctx, cancel: cancel}
}

// Context returns the context governed by this handle.
func (h *Handle) Context() context.Context {
	return h.ctx
}

// Cancel triggers the handle. Safe to call more than once.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done mirrors context.Done for checkpoint-style cancellation checks.
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

// Cancelled reports whether the handle has been triggered.
func (h *Handle) Cancelled() bool {
	return h.ctx.Err() != nil
}

// Registry maps request keys to live cancellation handles. A key maps to at
// most one live handle at a time; handles are removed when their request
// completes or when cancellation triggers them.
type Registry struct {
	mu      sync.Mutex
	handles map[string]*Handle
	logger  *logrus.Logger
}

// New creates an empty registry.
func New(logger *logrus.Logger) *Registry {
	return &Registry{
		handles: make(map[string]*Handle),
		logger:  logger,
	}
}

// GetOrCreate returns the live handle for key, creating one lazily on first
// use. Idempotent per key while the handle is live.
func (r *Registry) GetOrCreate(key string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.handles[key]; ok {
		return h
	}
	h := NewHandle(context.Background())
	r.handles[key] = h
	return h
}

// Cancel triggers the handle under key and removes it. Unknown keys are a
// no-op.
func (r *Registry) Cancel(key string) {
	r.mu.Lock()
	h, ok := r.handles[key]
	delete(r.handles, key)
	r.mu.Unlock()
	if ok {
		h.Cancel()
	}
}

// Remove drops the handle under key without triggering it. Used on normal
// request completion.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	delete(r.handles, key)
	r.mu.Unlock()
}

// CancelAll triggers every live handle and clears the map. A panicking
// trigger is logged and swallowed so one bad handle cannot block the rest.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[string]*Handle)
	r.mu.Unlock()

	for key, h := range handles {
		func() {
			defer func() {
				if rec := recover(); rec != nil && r.logger != nil {
					r.logger.WithField("key", key).Warnf("cancellation handle panicked: %v", rec)
				}
			}()
			h.Cancel()
		}()
	}
}

// Len reports the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
